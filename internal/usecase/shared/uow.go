package shared

import (
	"context"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/points"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrConditionFailed is returned by conditional writes whose guard no longer
// holds. Callers re-read and decide; it is never retried blindly.
var ErrConditionFailed = errs.Define(errs.KindStateConflict, "conditional update did not match current state")

var ErrIdempotencyRecordNotFound = errs.Define(errs.KindNotFound, "idempotency record not found")

type UnitOfWork interface {
	// Within runs fn in one transaction. Change events recorded through
	// tx.Changes() are published only after a successful commit.
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Offers() OfferRepository
	Reservations() ReservationRepository
	Ledger() LedgerRepository
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
	Users() UserRepository
	Changes() ChangeRecorder
}

// CounterDelta is a signed change to an offer's counters.
type CounterDelta struct {
	Reserved  int
	Validated int
}

type OfferRepository interface {
	Create(ctx context.Context, o *offer.Offer) error
	Get(ctx context.Context, id uuid.UUID) (*offer.Offer, error)
	// GetForUpdate reads the offer and holds its lock until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*offer.Offer, error)
	GetByQRCode(ctx context.Context, code uuid.UUID) (*offer.Offer, error)
	// UpdateCounters applies delta only if the offer is still in expected and
	// validated <= reserved <= target holds afterwards; otherwise ErrConditionFailed.
	UpdateCounters(ctx context.Context, id uuid.UUID, delta CounterDelta, expected offer.Status, at time.Time) error
	// UpdateStatus moves from -> to only if the offer is still in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to offer.Status, at time.Time) error
	ListOverdueActive(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type ReservationRepository interface {
	Create(ctx context.Context, r *reservation.Reservation) error
	Update(ctx context.Context, r *reservation.Reservation) error
	Get(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	// FindLatest returns the user's live reservation on the offer, or the most
	// recent cancelled one if there is no live one.
	FindLatest(ctx context.Context, offerID, userID uuid.UUID) (*reservation.Reservation, error)
	ListByOffer(ctx context.Context, offerID uuid.UUID) ([]*reservation.Reservation, error)
}

type LedgerRepository interface {
	Balance(ctx context.Context, userID uuid.UUID) (points.Balance, error)
	// Apply credits the award atomically. applied is false when the award's
	// dedupe key was already used; the balance is returned either way.
	Apply(ctx context.Context, a points.Award, at time.Time) (balance points.Balance, applied bool, err error)
}

type IdempotencyRepository interface {
	// TryInsert claims the key for this request. claimed is false when a live
	// record already exists; expired records are taken over.
	TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, now, expiresAt time.Time) (claimed bool, err error)
	Get(ctx context.Context, key, userID uuid.UUID) (*IdempotencyRecord, error)
	MarkCompleted(ctx context.Context, key, userID uuid.UUID, resultHash string, reservationID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}

type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type ChangeRecorder interface {
	Record(events ...ChangeEvent)
}
