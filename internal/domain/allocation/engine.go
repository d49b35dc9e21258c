package allocation

import (
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/tier"

	"github.com/google/uuid"
)

type Request struct {
	UserID     uuid.UUID
	Units      int
	UserPoints int64
	Now        time.Time
}

type Outcome struct {
	Offer       *offer.Offer
	Reservation *reservation.Reservation
	// Created is false when units were added to an existing reservation.
	Created bool
	// ReachedTarget is true only on the call that moved the offer to PICKUP.
	ReachedTarget bool
}

// Reserve decides a reservation request against the latest offer snapshot and
// the user's latest reservation on it (nil if none). It performs no I/O; the
// caller must hold the offer's lock while calling it and persisting the result.
func Reserve(o *offer.Offer, existing *reservation.Reservation, req Request) (Outcome, error) {
	if req.Units < 1 {
		return Outcome{}, ErrInvalidQuantity
	}
	if o.Status() != offer.StatusActive {
		return Outcome{}, &OfferNotActiveError{Status: o.Status()}
	}
	if o.IsOverdue(req.Now) {
		return Outcome{}, ErrOfferExpired
	}

	held := 0
	if existing != nil {
		if !existing.IsLive() {
			return Outcome{}, ErrCannotResume
		}
		held = existing.Units()
	}

	level := tier.FromPoints(req.UserPoints)
	if cumulative := held + req.Units; cumulative > level.Cap() {
		return Outcome{}, &TierCapExceededError{Tier: level, Cap: level.Cap(), Requested: cumulative}
	}

	if avail := o.Available(); avail < req.Units {
		return Outcome{}, &CapacityError{Available: avail}
	}

	nextOffer, err := o.WithReservedDelta(req.Units, req.Now)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{}
	if existing == nil {
		out.Reservation, err = reservation.NewReservation(o.ID(), req.UserID, req.Units, o.GroupPrice(), level, req.Now)
		out.Created = true
	} else {
		out.Reservation, err = existing.AddUnits(req.Units, o.GroupPrice(), req.Now)
	}
	if err != nil {
		return Outcome{}, err
	}

	out.Offer, err = offer.Next(nextOffer, offer.Event{Type: offer.EventTargetReached, At: req.Now})
	if err != nil {
		return Outcome{}, err
	}
	out.ReachedTarget = out.Offer.Status() == offer.StatusPickup
	return out, nil
}

type CancelOutcome struct {
	Offer       *offer.Offer
	Reservation *reservation.Reservation
}

// Cancel releases a user's units while the offer is still collecting. Units
// committed to a PICKUP offer cannot be released.
func Cancel(o *offer.Offer, r *reservation.Reservation, now time.Time) (CancelOutcome, error) {
	if r == nil {
		return CancelOutcome{}, reservation.ErrNotFound
	}
	if o.Status() != offer.StatusActive {
		return CancelOutcome{}, &OfferNotActiveError{Status: o.Status()}
	}
	cancelled, err := r.Cancel(now)
	if err != nil {
		return CancelOutcome{}, err
	}
	nextOffer, err := o.WithReservedDelta(-r.Units(), now)
	if err != nil {
		return CancelOutcome{}, err
	}
	return CancelOutcome{Offer: nextOffer, Reservation: cancelled}, nil
}

type ExpireOutcome struct {
	Offer   *offer.Offer
	Expired []*reservation.Reservation
	Changed bool
}

// Expire runs the expiry check and, if the offer expires, moves its RESERVED
// reservations to EXPIRED. Non-reserved entries are left alone.
func Expire(o *offer.Offer, reservations []*reservation.Reservation, now time.Time) (ExpireOutcome, error) {
	next, err := offer.Next(o, offer.Event{Type: offer.EventExpiryCheck, At: now})
	if err != nil {
		return ExpireOutcome{}, err
	}
	if next.Status() != offer.StatusExpired || o.Status() == offer.StatusExpired {
		return ExpireOutcome{Offer: o}, nil
	}

	out := ExpireOutcome{Offer: next, Changed: true}
	for _, r := range reservations {
		if !r.IsReserved() {
			continue
		}
		expired, err := r.Expire(now)
		if err != nil {
			return ExpireOutcome{}, err
		}
		out.Expired = append(out.Expired, expired)
	}
	return out, nil
}
