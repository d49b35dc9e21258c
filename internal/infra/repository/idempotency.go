package repository

import (
	"context"
	"time"

	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
	"groupbuy/internal/pkg/pgconv"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type IdempotencyRepository struct {
	db db.DBTX
}

func NewIdempotencyRepository(db db.DBTX) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// TryInsert takes over a record whose TTL has lapsed; a live record is left alone.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, key, userID uuid.UUID, endpoint, requestHash string, now, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx, `INSERT INTO idempotency_keys
		(key, user_id, endpoint, request_hash, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (key, user_id) DO UPDATE
		SET endpoint = EXCLUDED.endpoint,
		    request_hash = EXCLUDED.request_hash,
		    status = EXCLUDED.status,
		    response_body_hash = NULL,
		    result_reservation_id = NULL,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
		WHERE idempotency_keys.expires_at <= EXCLUDED.created_at`,
		key, userID, endpoint, requestHash, shared.IdempotencyStatusProcessing, expiresAt, now)
	if err != nil {
		return false, infra.WrapRepoErr("failed to claim idempotency key", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *IdempotencyRepository) Get(ctx context.Context, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	var (
		rec      shared.IdempotencyRecord
		resultID pgtype.UUID
	)
	err := r.db.QueryRow(ctx, `SELECT key, user_id, endpoint, status, request_hash, result_reservation_id, expires_at
		FROM idempotency_keys WHERE key = $1 AND user_id = $2`, key, userID).
		Scan(&rec.Key, &rec.UserID, &rec.Endpoint, &rec.Status, &rec.RequestHash, &resultID, &rec.ExpiresAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound(shared.ErrIdempotencyRecordNotFound, "idempotency key not found", err)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}
	rec.ResultReservationID = pgconv.UUIDPtrFromPgtype(resultID)
	return &rec, nil
}

func (r *IdempotencyRepository) MarkCompleted(ctx context.Context, key, userID uuid.UUID, resultHash string, reservationID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE idempotency_keys
		SET status = $3, response_body_hash = $4, result_reservation_id = $5, updated_at = now()
		WHERE key = $1 AND user_id = $2`,
		key, userID, shared.IdempotencyStatusCompleted, resultHash, reservationID)
	if err != nil {
		return infra.WrapRepoErr("failed to complete idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return tag.RowsAffected(), nil
}
