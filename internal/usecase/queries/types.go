package queries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferView represents read-optimized offer data
type OfferView struct {
	ID             uuid.UUID       `json:"id"`
	StoreID        uuid.UUID       `json:"store_id"`
	ProductName    string          `json:"product_name"`
	NormalPrice    decimal.Decimal `json:"normal_price"`
	GroupPrice     decimal.Decimal `json:"group_price"`
	TargetUnits    int             `json:"target_units"`
	ReservedUnits  int             `json:"reserved_units"`
	ValidatedUnits int             `json:"validated_units"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	// QRCode is only filled for the owning merchant.
	QRCode *uuid.UUID `json:"qr_code,omitempty"`
}

func (v *OfferView) AvailableUnits() int {
	if n := v.TargetUnits - v.ReservedUnits; n > 0 {
		return n
	}
	return 0
}

// ReservationView represents read-optimized reservation data
type ReservationView struct {
	ID            uuid.UUID       `json:"id"`
	OfferID       uuid.UUID       `json:"offer_id"`
	ProductName   string          `json:"product_name"`
	UserID        uuid.UUID       `json:"user_id"`
	UserEmail     string          `json:"user_email"`
	Units         int             `json:"units"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	LevelSnapshot string          `json:"level_snapshot"`
	Status        string          `json:"status"`
	ReservedAt    time.Time       `json:"reserved_at"`
	ValidatedAt   *time.Time      `json:"validated_at,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AuthorizedUserView represents read-optimized user data with authorization info
type AuthorizedUserView struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	Role     string     `json:"role"`
	StoreID  *uuid.UUID `json:"store_id,omitempty"`
	Points   int64      `json:"points"`
	IsActive bool       `json:"is_active"`
}

type OfferListFilter struct {
	Status  string
	StoreID *uuid.UUID
	After   *KeysetPosition
	Limit   int
}

type ReservationListFilter struct {
	UserID uuid.UUID
	After  *KeysetPosition
	Limit  int
}

// KeysetPosition is the (created_at, id) pair a page starts after.
type KeysetPosition struct {
	At time.Time
	ID uuid.UUID
}

type OfferPage struct {
	Items      []*OfferView `json:"items"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

type ReservationPage struct {
	Items      []*ReservationView `json:"items"`
	NextCursor *string            `json:"next_cursor,omitempty"`
}
