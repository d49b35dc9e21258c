package repository

import (
	"context"
	"time"

	"groupbuy/internal/domain/points"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
	"groupbuy/internal/pkg/pgconv"

	"github.com/google/uuid"
)

// LedgerRepository keeps point_awards as the append-only history and
// users.points as the running balance.
type LedgerRepository struct {
	db db.DBTX
}

func NewLedgerRepository(db db.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Balance(ctx context.Context, userID uuid.UUID) (points.Balance, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&total)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return points.Balance{}, infra.NotFound(user.ErrNotFound, "user not found", err)
		}
		return points.Balance{}, infra.WrapRepoErr("failed to read balance", err)
	}
	return points.Balance{UserID: userID, Points: total}, nil
}

func (r *LedgerRepository) Apply(ctx context.Context, a points.Award, at time.Time) (points.Balance, bool, error) {
	tag, err := r.db.Exec(ctx, `INSERT INTO point_awards (user_id, reason, amount, dedupe_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, dedupe_key) DO NOTHING`,
		a.UserID(), a.Reason().String(), a.Amount(), a.DedupeKey(), at)
	if err != nil {
		return points.Balance{}, false, infra.WrapRepoErr("failed to record award", err)
	}
	if tag.RowsAffected() == 0 {
		b, err := r.Balance(ctx, a.UserID())
		return b, false, err
	}

	var total int64
	err = r.db.QueryRow(ctx,
		`UPDATE users SET points = points + $2, updated_at = $3 WHERE id = $1 RETURNING points`,
		a.UserID(), a.Amount(), at).Scan(&total)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return points.Balance{}, false, infra.NotFound(user.ErrNotFound, "user not found", err)
		}
		return points.Balance{}, false, infra.WrapRepoErr("failed to credit points", err)
	}
	return points.Balance{UserID: a.UserID(), Points: total}, true, nil
}
