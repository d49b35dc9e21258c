package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ChangePublisher interface {
	Publish(ctx context.Context, events []ChangeEvent) error
}

// ChangeSource delivers change events until ctx is cancelled. Ordering and
// delivery are best effort.
type ChangeSource interface {
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// TokenCache maps a QR token string to the reservation it resolved to.
type TokenCache interface {
	Get(ctx context.Context, token string) (uuid.UUID, bool, error)
	Set(ctx context.Context, token string, reservationID uuid.UUID, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}
