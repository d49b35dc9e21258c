package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
	"groupbuy/internal/infra/repository"
	"groupbuy/internal/pkg/errs"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	errTransactionBegin   = errs.Define(errs.KindTransient, "failed to begin transaction")
	errMaxRetriesExceeded = errs.Define(errs.KindTransient, "transaction failed after max retries")
)

type PostgresUoW struct {
	pool      *pgxpool.Pool
	publisher shared.ChangePublisher
	metrics   *metrics.Engine
}

func NewPostgresUoW(pool *pgxpool.Pool, publisher shared.ChangePublisher, m *metrics.Engine) *PostgresUoW {
	return &PostgresUoW{
		pool:      pool,
		publisher: publisher,
		metrics:   m,
	}
}

// Within uses READ COMMITTED; offers are serialized with row locks taken by
// GetForUpdate rather than by the isolation level.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	events, err := u.runInTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
	if err != nil {
		return err
	}
	publishAfterCommit(ctx, u.publisher, u.metrics, events)
	return nil
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTx(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) ([]shared.ChangeEvent, error) {
	const maxRetries = 3
	base := 50 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errTransactionBegin, err)
		}

		tx := newPgTx(pgxTx)

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return tx.changes.events, nil
			}
			err = infra.WrapRepoErr("failed to commit transaction", err)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries && isRetryableError(err) {
				slog.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return nil, errors.Join(errMaxRetriesExceeded, err)
			}
			return nil, err
		}

		waitTime := calculateBackoff(attempt, base)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return nil, errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- Intentionally safe conversion after masking
	return int64(uval) % n
}

// Only serialization failures, deadlocks and lock timeouts are replayed.
// Conditional-write misses are business outcomes and surface as-is.
func isRetryableError(err error) bool {
	return infra.IsKind(err, infra.KindConflict)
}

// publishAfterCommit never fails the caller: the write is durable and
// subscribers recover by refetching on the next event.
func publishAfterCommit(ctx context.Context, p shared.ChangePublisher, m *metrics.Engine, events []shared.ChangeEvent) {
	if p == nil || len(events) == 0 {
		return
	}
	if err := p.Publish(context.WithoutCancel(ctx), events); err != nil {
		slog.Warn("failed to publish change events", "count", len(events), "error", err.Error())
		m.ChangeDropped()
	}
}

type pgTx struct {
	dbtx    db.DBTX
	changes *changeBuffer

	// Lazy-initialized repositories
	offerRepo        shared.OfferRepository
	reservationRepo  shared.ReservationRepository
	ledgerRepo       shared.LedgerRepository
	idempotencyRepo  shared.IdempotencyRepository
	notificationRepo shared.NotificationRepository
	userRepo         shared.UserRepository
}

func newPgTx(dbtx db.DBTX) *pgTx {
	return &pgTx{dbtx: dbtx, changes: &changeBuffer{}}
}

func (t *pgTx) Offers() shared.OfferRepository {
	if t.offerRepo == nil {
		t.offerRepo = repository.NewOfferRepository(t.dbtx)
	}
	return t.offerRepo
}

func (t *pgTx) Reservations() shared.ReservationRepository {
	if t.reservationRepo == nil {
		t.reservationRepo = repository.NewReservationRepository(t.dbtx)
	}
	return t.reservationRepo
}

func (t *pgTx) Ledger() shared.LedgerRepository {
	if t.ledgerRepo == nil {
		t.ledgerRepo = repository.NewLedgerRepository(t.dbtx)
	}
	return t.ledgerRepo
}

func (t *pgTx) Idempotency() shared.IdempotencyRepository {
	if t.idempotencyRepo == nil {
		t.idempotencyRepo = repository.NewIdempotencyRepository(t.dbtx)
	}
	return t.idempotencyRepo
}

func (t *pgTx) Notifications() shared.NotificationRepository {
	if t.notificationRepo == nil {
		t.notificationRepo = repository.NewNotificationRepository(t.dbtx)
	}
	return t.notificationRepo
}

func (t *pgTx) Users() shared.UserRepository {
	if t.userRepo == nil {
		t.userRepo = repository.NewUserRepository(t.dbtx)
	}
	return t.userRepo
}

func (t *pgTx) Changes() shared.ChangeRecorder {
	return t.changes
}

// changeBuffer is discarded on rollback, so retried attempts start clean.
type changeBuffer struct {
	events []shared.ChangeEvent
}

func (b *changeBuffer) Record(events ...shared.ChangeEvent) {
	b.events = append(b.events, events...)
}
