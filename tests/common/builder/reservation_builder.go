//go:build unit || e2e

package builder

import (
	"time"

	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/tier"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReservationBuilder struct {
	ID          uuid.UUID
	OfferID     uuid.UUID
	UserID      uuid.UUID
	Units       int
	UnitPrice   decimal.Decimal
	Level       tier.Tier
	Status      reservation.Status
	ReservedAt  time.Time
	ValidatedAt *time.Time
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		ID:         uuid.New(),
		OfferID:    uuid.New(),
		UserID:     uuid.New(),
		Units:      1,
		UnitPrice:  decimal.RequireFromString("8.50"),
		Level:      tier.Bronze,
		Status:     reservation.StatusReserved,
		ReservedAt: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	mutate(b)
	return b
}

func (b *ReservationBuilder) BuildDomain() *reservation.Reservation {
	total := b.UnitPrice.Mul(decimal.NewFromInt(int64(b.Units)))
	updated := b.ReservedAt
	if b.ValidatedAt != nil {
		updated = *b.ValidatedAt
	}
	return reservation.ReconstructReservation(b.ID, b.OfferID, b.UserID, b.Units, total, b.Level, b.Status,
		b.ReservedAt, b.ValidatedAt, nil, updated)
}

func (b *ReservationBuilder) BuildReadModel() *queries.ReservationView {
	r := b.BuildDomain()
	return &queries.ReservationView{
		ID:            r.ID(),
		OfferID:       r.OfferID(),
		ProductName:   "Bread Box",
		UserID:        r.UserID(),
		UserEmail:     "shopper@example.com",
		Units:         r.Units(),
		TotalPrice:    r.TotalPrice(),
		LevelSnapshot: r.LevelSnapshot().String(),
		Status:        r.Status().String(),
		ReservedAt:    r.ReservedAt(),
		ValidatedAt:   r.ValidatedAt(),
		UpdatedAt:     r.UpdatedAt(),
	}
}

func (b *ReservationBuilder) ForOffer(offerID uuid.UUID) *ReservationBuilder {
	b.OfferID = offerID
	return b
}

func (b *ReservationBuilder) ForUser(userID uuid.UUID) *ReservationBuilder {
	b.UserID = userID
	return b
}

func (b *ReservationBuilder) WithUnits(units int) *ReservationBuilder {
	b.Units = units
	return b
}

func (b *ReservationBuilder) WithStatus(status reservation.Status) *ReservationBuilder {
	b.Status = status
	return b
}

func (b *ReservationBuilder) ValidatedOn(at time.Time) *ReservationBuilder {
	b.Status = reservation.StatusValidated
	b.ValidatedAt = &at
	return b
}
