package repository

import (
	"context"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
	"groupbuy/internal/infra/repository/converter"
	"groupbuy/internal/pkg/pgconv"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
)

type OfferRepository struct {
	db db.DBTX
}

func NewOfferRepository(db db.DBTX) *OfferRepository {
	return &OfferRepository{db: db}
}

func (r *OfferRepository) Create(ctx context.Context, o *offer.Offer) error {
	_, err := r.db.Exec(ctx, `INSERT INTO offers (`+converter.OfferColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		converter.OfferArgs(o)...)
	if err != nil {
		return infra.WrapRepoErr("failed to create offer", err)
	}
	return nil
}

func (r *OfferRepository) Get(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	return r.scanOne(ctx, "failed to get offer",
		`SELECT `+converter.OfferColumns+` FROM offers WHERE id = $1`, id)
}

func (r *OfferRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	return r.scanOne(ctx, "failed to lock offer",
		`SELECT `+converter.OfferColumns+` FROM offers WHERE id = $1 FOR UPDATE`, id)
}

func (r *OfferRepository) GetByQRCode(ctx context.Context, code uuid.UUID) (*offer.Offer, error) {
	return r.scanOne(ctx, "failed to get offer by qr code",
		`SELECT `+converter.OfferColumns+` FROM offers WHERE qr_code = $1`, code)
}

func (r *OfferRepository) UpdateCounters(ctx context.Context, id uuid.UUID, delta shared.CounterDelta, expected offer.Status, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE offers
		SET reserved_units = reserved_units + $2,
		    validated_units = validated_units + $3,
		    updated_at = $5
		WHERE id = $1
		  AND status = $4
		  AND reserved_units + $2 BETWEEN validated_units + $3 AND target_units
		  AND validated_units + $3 >= 0`,
		id, delta.Reserved, delta.Validated, expected.String(), at)
	if err != nil {
		return infra.WrapRepoErr("failed to update offer counters", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConditionFailed
	}
	return nil
}

func (r *OfferRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to offer.Status, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE offers SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, from.String(), to.String(), at)
	if err != nil {
		return infra.WrapRepoErr("failed to update offer status", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConditionFailed
	}
	return nil
}

func (r *OfferRepository) ListOverdueActive(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM offers WHERE status = $1 AND expires_at <= $2 ORDER BY expires_at LIMIT $3`,
		offer.StatusActive.String(), now, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list overdue offers", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan overdue offer", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate overdue offers", err)
	}
	return ids, nil
}

func (r *OfferRepository) scanOne(ctx context.Context, msg, query string, args ...any) (*offer.Offer, error) {
	o, err := converter.ScanOffer(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound(offer.ErrNotFound, "offer not found", err)
		}
		return nil, infra.WrapRepoErr(msg, err)
	}
	return o, nil
}
