//go:build unit

package uow

import (
	"context"
	"errors"
	"testing"
	"time"

	"groupbuy/internal/infra"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	base := 50 * time.Millisecond
	for attempt := range 4 {
		want := time.Duration(1<<attempt) * base
		for range 20 {
			got := calculateBackoff(attempt, base)
			assert.GreaterOrEqual(t, got, want)
			assert.Less(t, got, want+want/5+time.Nanosecond)
		}
	}
}

func TestCryptoRandInt63n(t *testing.T) {
	assert.Zero(t, cryptoRandInt63n(0))
	assert.Zero(t, cryptoRandInt63n(-1))
	for range 100 {
		n := cryptoRandInt63n(7)
		assert.GreaterOrEqual(t, n, int64(0))
		assert.Less(t, n, int64(7))
	}
}

func TestShouldRetry(t *testing.T) {
	conflict := infra.WrapRepoErr("update offer", &pgconn.PgError{Code: "40001"})
	deadlock := infra.WrapRepoErr("update offer", &pgconn.PgError{Code: "40P01"})

	assert.True(t, shouldRetry(conflict, 0, 3))
	assert.True(t, shouldRetry(deadlock, 2, 3))
	assert.False(t, shouldRetry(conflict, 3, 3), "attempts are bounded")

	for name, err := range map[string]error{
		"condition failed": shared.ErrConditionFailed,
		"duplicate key":    infra.WrapRepoErr("insert", &pgconn.PgError{Code: "23505"}),
		"unavailable":      infra.WrapRepoErr("begin", nil, infra.KindUnavailable),
		"plain":            errors.New("boom"),
	} {
		assert.False(t, shouldRetry(err, 0, 3), name)
	}
}

func TestPublishAfterCommit(t *testing.T) {
	ev := shared.OfferChanged(shared.OpUpdate, uuid.New(), time.Now())

	t.Run("nothing to publish", func(t *testing.T) {
		p := &stubPublisher{}
		publishAfterCommit(context.Background(), p, nil, nil)
		publishAfterCommit(context.Background(), nil, nil, []shared.ChangeEvent{ev})
		assert.Zero(t, p.calls)
	})

	t.Run("survives a cancelled request context", func(t *testing.T) {
		p := &stubPublisher{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		publishAfterCommit(ctx, p, nil, []shared.ChangeEvent{ev})
		assert.Equal(t, 1, p.calls)
		assert.NoError(t, p.ctxErr)
	})

	t.Run("failures are counted, not returned", func(t *testing.T) {
		m, err := metrics.NewEngine("test", prometheus.NewRegistry())
		require.NoError(t, err)
		p := &stubPublisher{err: errors.New("bus down")}
		publishAfterCommit(context.Background(), p, m, []shared.ChangeEvent{ev})
		assert.Equal(t, 1, p.calls)
	})
}

func TestChangeBuffer(t *testing.T) {
	tx := newPgTx(nil)
	ev := shared.OfferChanged(shared.OpInsert, uuid.New(), time.Now())
	tx.Changes().Record(ev, ev)
	assert.Len(t, tx.changes.events, 2)

	// Repositories are built lazily and reused.
	assert.Same(t, tx.Offers(), tx.Offers())
}

type stubPublisher struct {
	calls  int
	ctxErr error
	err    error
}

func (p *stubPublisher) Publish(ctx context.Context, _ []shared.ChangeEvent) error {
	p.calls++
	p.ctxErr = ctx.Err()
	return p.err
}
