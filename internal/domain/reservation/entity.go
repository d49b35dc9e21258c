package reservation

import (
	"time"

	"groupbuy/internal/domain/tier"
	"groupbuy/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errs.Define(errs.KindNotFound, "reservation not found")
	ErrInvalidStatus    = errs.Define(errs.KindValidation, "invalid reservation status")
	ErrInvalidUnits     = errs.Define(errs.KindValidation, "units must be at least 1")
	ErrAlreadyValidated = errs.Define(errs.KindStateConflict, "reservation is already validated")
	ErrCancelled        = errs.Define(errs.KindStateConflict, "reservation is cancelled")
	ErrExpired          = errs.Define(errs.KindStateConflict, "reservation has expired")
)

type Reservation struct {
	id            uuid.UUID
	offerID       uuid.UUID
	userID        uuid.UUID
	units         int
	totalPrice    decimal.Decimal
	levelSnapshot tier.Tier
	status        Status
	reservedAt    time.Time
	validatedAt   *time.Time
	cancelledAt   *time.Time
	updatedAt     time.Time
}

func NewReservation(offerID, userID uuid.UUID, units int, unitPrice decimal.Decimal, level tier.Tier, now time.Time) (*Reservation, error) {
	if units < 1 {
		return nil, ErrInvalidUnits
	}
	return &Reservation{
		id:            uuid.New(),
		offerID:       offerID,
		userID:        userID,
		units:         units,
		totalPrice:    unitPrice.Mul(decimal.NewFromInt(int64(units))),
		levelSnapshot: level,
		status:        StatusReserved,
		reservedAt:    now,
		updatedAt:     now,
	}, nil
}

func ReconstructReservation(
	id, offerID, userID uuid.UUID,
	units int,
	totalPrice decimal.Decimal,
	levelSnapshot tier.Tier,
	status Status,
	reservedAt time.Time,
	validatedAt, cancelledAt *time.Time,
	updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:            id,
		offerID:       offerID,
		userID:        userID,
		units:         units,
		totalPrice:    totalPrice,
		levelSnapshot: levelSnapshot,
		status:        status,
		reservedAt:    reservedAt,
		validatedAt:   validatedAt,
		cancelledAt:   cancelledAt,
		updatedAt:     updatedAt,
	}
}

func (r *Reservation) ID() uuid.UUID               { return r.id }
func (r *Reservation) OfferID() uuid.UUID          { return r.offerID }
func (r *Reservation) UserID() uuid.UUID           { return r.userID }
func (r *Reservation) Units() int                  { return r.units }
func (r *Reservation) TotalPrice() decimal.Decimal { return r.totalPrice }
func (r *Reservation) LevelSnapshot() tier.Tier    { return r.levelSnapshot }
func (r *Reservation) Status() Status              { return r.status }
func (r *Reservation) ReservedAt() time.Time       { return r.reservedAt }
func (r *Reservation) ValidatedAt() *time.Time     { return r.validatedAt }
func (r *Reservation) CancelledAt() *time.Time     { return r.cancelledAt }
func (r *Reservation) UpdatedAt() time.Time        { return r.updatedAt }

// IsLive is true for every status except CANCELLED. At most one live
// reservation exists per (offer, user).
func (r *Reservation) IsLive() bool { return r.status != StatusCancelled }

func (r *Reservation) IsReserved() bool { return r.status == StatusReserved }

// AddUnits grows the claim. The level snapshot taken at creation is kept.
func (r *Reservation) AddUnits(units int, unitPrice decimal.Decimal, at time.Time) (*Reservation, error) {
	if units < 1 {
		return nil, ErrInvalidUnits
	}
	if err := r.requireReserved(); err != nil {
		return nil, err
	}
	c := r.clone(at)
	c.units += units
	c.totalPrice = unitPrice.Mul(decimal.NewFromInt(int64(c.units)))
	return c, nil
}

func (r *Reservation) Validate(at time.Time) (*Reservation, error) {
	if err := r.requireReserved(); err != nil {
		return nil, err
	}
	c := r.clone(at)
	c.status = StatusValidated
	c.validatedAt = &at
	return c, nil
}

func (r *Reservation) Cancel(at time.Time) (*Reservation, error) {
	if err := r.requireReserved(); err != nil {
		return nil, err
	}
	c := r.clone(at)
	c.status = StatusCancelled
	c.cancelledAt = &at
	return c, nil
}

func (r *Reservation) Expire(at time.Time) (*Reservation, error) {
	if err := r.requireReserved(); err != nil {
		return nil, err
	}
	c := r.clone(at)
	c.status = StatusExpired
	return c, nil
}

func (r *Reservation) requireReserved() error {
	switch r.status {
	case StatusReserved:
		return nil
	case StatusValidated:
		return ErrAlreadyValidated
	case StatusCancelled:
		return ErrCancelled
	case StatusExpired:
		return ErrExpired
	default:
		return ErrInvalidStatus
	}
}

func (r *Reservation) clone(at time.Time) *Reservation {
	c := *r
	c.updatedAt = at
	return &c
}
