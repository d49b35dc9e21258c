package offer

import (
	"time"

	"groupbuy/internal/pkg/errs"
)

var (
	ErrInvalidTransition = errs.Define(errs.KindStateConflict, "invalid offer status transition")
	ErrUnknownEvent      = errs.Define(errs.KindValidation, "unknown offer event")
)

type EventType string

const (
	// EventTargetReached is raised after reservedUnits grows.
	EventTargetReached EventType = "TARGET_REACHED"
	// EventFullyValidated is raised after validatedUnits grows.
	EventFullyValidated EventType = "FULLY_VALIDATED"
	// EventExpiryCheck is raised by the periodic sweep and before reserving.
	EventExpiryCheck EventType = "EXPIRY_CHECK"
)

type Event struct {
	Type EventType
	At   time.Time
}

var transitions = map[Status][]Status{
	StatusActive: {StatusPickup, StatusExpired},
	StatusPickup: {StatusCompleted},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
// There are no backward edges.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Next is the pure transition function of the offer lifecycle. When the
// event's guard does not hold the input is returned unchanged with a nil error;
// an error means the event cannot apply to the current status at all.
func Next(o *Offer, ev Event) (*Offer, error) {
	switch ev.Type {
	case EventTargetReached:
		if o.status != StatusActive {
			return nil, ErrInvalidTransition
		}
		if !o.ReachedTarget() {
			return o, nil
		}
		return o.transition(StatusPickup, ev.At), nil

	case EventFullyValidated:
		if o.status != StatusPickup {
			return nil, ErrInvalidTransition
		}
		if !o.FullyValidated() {
			return o, nil
		}
		return o.transition(StatusCompleted, ev.At), nil

	case EventExpiryCheck:
		// PICKUP and later are committed deals and never expire.
		if o.status != StatusActive || !o.IsOverdue(ev.At) {
			return o, nil
		}
		return o.transition(StatusExpired, ev.At), nil

	default:
		return nil, ErrUnknownEvent
	}
}

func (o *Offer) transition(to Status, at time.Time) *Offer {
	c := o.clone(at)
	c.status = to
	return c
}
