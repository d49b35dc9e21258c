package validation

import (
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/reservation"

	"github.com/google/uuid"
)

type Outcome struct {
	Offer       *offer.Offer
	Reservation *reservation.Reservation
	// Completed is true only on the call that moved the offer to COMPLETED.
	Completed bool
}

// Validate authorizes one pickup. The store check runs first so a foreign
// merchant learns nothing about the reservation's state.
func Validate(o *offer.Offer, r *reservation.Reservation, validatorStoreID uuid.UUID, now time.Time) (Outcome, error) {
	if r.OfferID() != o.ID() {
		return Outcome{}, ErrMismatchedOffer
	}
	if o.StoreID() != validatorStoreID {
		return Outcome{}, ErrWrongStore
	}

	validated, err := r.Validate(now)
	if err != nil {
		return Outcome{}, err
	}

	if o.Status() != offer.StatusPickup {
		return Outcome{}, &OfferNotInPickupError{Status: o.Status()}
	}

	counted, err := o.WithValidatedDelta(r.Units(), now)
	if err != nil {
		return Outcome{}, err
	}
	next, err := offer.Next(counted, offer.Event{Type: offer.EventFullyValidated, At: now})
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Offer:       next,
		Reservation: validated,
		Completed:   next.Status() == offer.StatusCompleted,
	}, nil
}
