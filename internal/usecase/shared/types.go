package shared

import (
	"time"

	"github.com/google/uuid"
)

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"
)

type IdempotencyRecord struct {
	Key                 uuid.UUID
	UserID              uuid.UUID
	Endpoint            string
	Status              string
	RequestHash         string
	ResultReservationID *uuid.UUID
	ExpiresAt           time.Time
}

type Entity string

const (
	EntityOffer       Entity = "offer"
	EntityReservation Entity = "reservation"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// ChangeEvent tells subscribers that an entity changed. It carries no state:
// consumers refetch the entity by ID.
type ChangeEvent struct {
	Entity  Entity    `json:"entity"`
	Op      Op        `json:"op"`
	ID      uuid.UUID `json:"id"`
	OfferID uuid.UUID `json:"offer_id"`
	At      time.Time `json:"at"`
}

func OfferChanged(op Op, offerID uuid.UUID, at time.Time) ChangeEvent {
	return ChangeEvent{Entity: EntityOffer, Op: op, ID: offerID, OfferID: offerID, At: at}
}

func ReservationChanged(op Op, reservationID, offerID uuid.UUID, at time.Time) ChangeEvent {
	return ChangeEvent{Entity: EntityReservation, Op: op, ID: reservationID, OfferID: offerID, At: at}
}
