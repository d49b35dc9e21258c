package offer

import (
	"strings"
	"time"

	"groupbuy/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errs.Define(errs.KindNotFound, "offer not found")
	ErrInvalidStatus      = errs.Define(errs.KindValidation, "invalid offer status")
	ErrEmptyProductName   = errs.Define(errs.KindValidation, "product name is required")
	ErrInvalidPrice       = errs.Define(errs.KindValidation, "group price must be positive and below the normal price")
	ErrInvalidTargetUnits = errs.Define(errs.KindValidation, "target units must be at least 1")
	ErrInvalidExpiry      = errs.Define(errs.KindValidation, "offer must expire after it is created")
	ErrCounterOutOfRange  = errs.Define(errs.KindStateConflict, "offer counters out of range")
	ErrImmutable          = errs.Define(errs.KindStateConflict, "offer is closed")
)

const maxProductNameLength = 200

type NewParams struct {
	StoreID     uuid.UUID
	ProductName string
	NormalPrice decimal.Decimal
	GroupPrice  decimal.Decimal
	TargetUnits int
	ExpiresAt   time.Time
}

// Offer is a snapshot of a merchant batch deal. Mutators never modify the
// receiver; they return the next snapshot.
type Offer struct {
	id             uuid.UUID
	storeID        uuid.UUID
	qrCode         uuid.UUID
	productName    string
	normalPrice    decimal.Decimal
	groupPrice     decimal.Decimal
	targetUnits    int
	reservedUnits  int
	validatedUnits int
	status         Status
	createdAt      time.Time
	expiresAt      time.Time
	updatedAt      time.Time
}

func NewOffer(p NewParams, now time.Time) (*Offer, error) {
	name := strings.TrimSpace(p.ProductName)
	if name == "" || len(name) > maxProductNameLength {
		return nil, ErrEmptyProductName
	}
	if !p.GroupPrice.IsPositive() || !p.NormalPrice.IsPositive() || !p.GroupPrice.LessThan(p.NormalPrice) {
		return nil, ErrInvalidPrice
	}
	if p.TargetUnits < 1 {
		return nil, ErrInvalidTargetUnits
	}
	if !now.Before(p.ExpiresAt) {
		return nil, ErrInvalidExpiry
	}

	return &Offer{
		id:          uuid.New(),
		storeID:     p.StoreID,
		qrCode:      uuid.New(),
		productName: name,
		normalPrice: p.NormalPrice,
		groupPrice:  p.GroupPrice,
		targetUnits: p.TargetUnits,
		status:      StatusActive,
		createdAt:   now,
		expiresAt:   p.ExpiresAt,
		updatedAt:   now,
	}, nil
}

func ReconstructOffer(
	id, storeID, qrCode uuid.UUID,
	productName string,
	normalPrice, groupPrice decimal.Decimal,
	targetUnits, reservedUnits, validatedUnits int,
	status Status,
	createdAt, expiresAt, updatedAt time.Time,
) *Offer {
	return &Offer{
		id:             id,
		storeID:        storeID,
		qrCode:         qrCode,
		productName:    productName,
		normalPrice:    normalPrice,
		groupPrice:     groupPrice,
		targetUnits:    targetUnits,
		reservedUnits:  reservedUnits,
		validatedUnits: validatedUnits,
		status:         status,
		createdAt:      createdAt,
		expiresAt:      expiresAt,
		updatedAt:      updatedAt,
	}
}

func (o *Offer) ID() uuid.UUID                { return o.id }
func (o *Offer) StoreID() uuid.UUID           { return o.storeID }
func (o *Offer) QRCode() uuid.UUID            { return o.qrCode }
func (o *Offer) ProductName() string          { return o.productName }
func (o *Offer) NormalPrice() decimal.Decimal { return o.normalPrice }
func (o *Offer) GroupPrice() decimal.Decimal  { return o.groupPrice }
func (o *Offer) TargetUnits() int             { return o.targetUnits }
func (o *Offer) ReservedUnits() int           { return o.reservedUnits }
func (o *Offer) ValidatedUnits() int          { return o.validatedUnits }
func (o *Offer) Status() Status               { return o.status }
func (o *Offer) CreatedAt() time.Time         { return o.createdAt }
func (o *Offer) ExpiresAt() time.Time         { return o.expiresAt }
func (o *Offer) UpdatedAt() time.Time         { return o.updatedAt }

// Available is the number of units still open for reservation.
func (o *Offer) Available() int {
	if n := o.targetUnits - o.reservedUnits; n > 0 {
		return n
	}
	return 0
}

func (o *Offer) IsActive() bool { return o.status == StatusActive }

// IsOverdue reports whether the wall clock has passed expiresAt. Only ACTIVE
// offers are affected by this; see Next.
func (o *Offer) IsOverdue(now time.Time) bool {
	return !now.Before(o.expiresAt)
}

func (o *Offer) ReachedTarget() bool  { return o.reservedUnits >= o.targetUnits }
func (o *Offer) FullyValidated() bool { return o.validatedUnits >= o.targetUnits }

func (o *Offer) PriceFor(units int) decimal.Decimal {
	return o.groupPrice.Mul(decimal.NewFromInt(int64(units)))
}

// WithReservedDelta applies a signed change to reservedUnits, keeping
// validated <= reserved <= target.
func (o *Offer) WithReservedDelta(delta int, at time.Time) (*Offer, error) {
	if o.status.IsTerminal() {
		return nil, ErrImmutable
	}
	next := o.reservedUnits + delta
	if next < o.validatedUnits || next > o.targetUnits {
		return nil, ErrCounterOutOfRange
	}
	c := o.clone(at)
	c.reservedUnits = next
	return c, nil
}

// WithValidatedDelta applies a signed change to validatedUnits, keeping
// 0 <= validated <= reserved.
func (o *Offer) WithValidatedDelta(delta int, at time.Time) (*Offer, error) {
	if o.status.IsTerminal() {
		return nil, ErrImmutable
	}
	next := o.validatedUnits + delta
	if next < 0 || next > o.reservedUnits {
		return nil, ErrCounterOutOfRange
	}
	c := o.clone(at)
	c.validatedUnits = next
	return c, nil
}

func (o *Offer) clone(at time.Time) *Offer {
	c := *o
	c.updatedAt = at
	return &c
}
