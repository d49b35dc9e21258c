//go:build unit || e2e

package builder

import (
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/handler/dto/request"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OfferBuilder struct {
	ID             uuid.UUID
	StoreID        uuid.UUID
	QRCode         uuid.UUID
	ProductName    string
	NormalPrice    decimal.Decimal
	GroupPrice     decimal.Decimal
	TargetUnits    int
	ReservedUnits  int
	ValidatedUnits int
	Status         offer.Status
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

func NewOfferBuilder() *OfferBuilder {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	return &OfferBuilder{
		ID:          uuid.New(),
		StoreID:     uuid.New(),
		QRCode:      uuid.New(),
		ProductName: "Bread Box",
		NormalPrice: decimal.RequireFromString("12.00"),
		GroupPrice:  decimal.RequireFromString("8.50"),
		TargetUnits: 10,
		Status:      offer.StatusActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(24 * time.Hour),
	}
}

func (b *OfferBuilder) With(mutate func(*OfferBuilder)) *OfferBuilder {
	mutate(b)
	return b
}

func (b *OfferBuilder) BuildDomain() *offer.Offer {
	return offer.ReconstructOffer(b.ID, b.StoreID, b.QRCode, b.ProductName, b.NormalPrice, b.GroupPrice,
		b.TargetUnits, b.ReservedUnits, b.ValidatedUnits, b.Status, b.CreatedAt, b.ExpiresAt, b.CreatedAt)
}

func (b *OfferBuilder) BuildParams() offer.NewParams {
	return offer.NewParams{
		StoreID:     b.StoreID,
		ProductName: b.ProductName,
		NormalPrice: b.NormalPrice,
		GroupPrice:  b.GroupPrice,
		TargetUnits: b.TargetUnits,
		ExpiresAt:   b.ExpiresAt,
	}
}

func (b *OfferBuilder) BuildDTO() request.CreateOfferRequest {
	return request.CreateOfferRequest{
		ProductName: b.ProductName,
		NormalPrice: b.NormalPrice,
		GroupPrice:  b.GroupPrice,
		TargetUnits: b.TargetUnits,
		ExpiresAt:   b.ExpiresAt,
	}
}

func (b *OfferBuilder) BuildReadModel() *queries.OfferView {
	qr := b.QRCode
	return &queries.OfferView{
		ID:             b.ID,
		StoreID:        b.StoreID,
		ProductName:    b.ProductName,
		NormalPrice:    b.NormalPrice,
		GroupPrice:     b.GroupPrice,
		TargetUnits:    b.TargetUnits,
		ReservedUnits:  b.ReservedUnits,
		ValidatedUnits: b.ValidatedUnits,
		Status:         b.Status.String(),
		CreatedAt:      b.CreatedAt,
		ExpiresAt:      b.ExpiresAt,
		UpdatedAt:      b.CreatedAt,
		QRCode:         &qr,
	}
}

func (b *OfferBuilder) WithTarget(units int) *OfferBuilder {
	b.TargetUnits = units
	return b
}

func (b *OfferBuilder) WithReserved(units int) *OfferBuilder {
	b.ReservedUnits = units
	return b
}

func (b *OfferBuilder) WithValidated(units int) *OfferBuilder {
	b.ValidatedUnits = units
	return b
}

func (b *OfferBuilder) WithStatus(status offer.Status) *OfferBuilder {
	b.Status = status
	return b
}

func (b *OfferBuilder) WithStore(storeID uuid.UUID) *OfferBuilder {
	b.StoreID = storeID
	return b
}

func (b *OfferBuilder) ExpiringAt(at time.Time) *OfferBuilder {
	b.ExpiresAt = at
	return b
}
