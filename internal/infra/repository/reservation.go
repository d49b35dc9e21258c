package repository

import (
	"context"

	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
	"groupbuy/internal/infra/repository/converter"
	"groupbuy/internal/pkg/pgconv"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
)

type ReservationRepository struct {
	db db.DBTX
}

func NewReservationRepository(db db.DBTX) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	_, err := r.db.Exec(ctx, `INSERT INTO reservations (`+converter.ReservationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		converter.ReservationArgs(res)...)
	if err != nil {
		return infra.WrapRepoErr("failed to create reservation", err)
	}
	return nil
}

func (r *ReservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	args := converter.ReservationArgs(res)
	tag, err := r.db.Exec(ctx, `UPDATE reservations
		SET units = $4, total_price = $5, status = $7,
		    validated_at = $9, cancelled_at = $10, updated_at = $11
		WHERE id = $1 AND offer_id = $2 AND user_id = $3
		  AND level_snapshot = $6 AND reserved_at = $8`,
		args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrConditionFailed
	}
	return nil
}

func (r *ReservationRepository) Get(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	return r.scanOne(ctx, "failed to get reservation",
		`SELECT `+converter.ReservationColumns+` FROM reservations WHERE id = $1`, id)
}

func (r *ReservationRepository) FindLatest(ctx context.Context, offerID, userID uuid.UUID) (*reservation.Reservation, error) {
	return r.scanOne(ctx, "failed to find reservation",
		`SELECT `+converter.ReservationColumns+` FROM reservations
		WHERE offer_id = $1 AND user_id = $2
		ORDER BY (status = 'CANCELLED'), reserved_at DESC
		LIMIT 1`, offerID, userID)
}

func (r *ReservationRepository) ListByOffer(ctx context.Context, offerID uuid.UUID) ([]*reservation.Reservation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+converter.ReservationColumns+` FROM reservations WHERE offer_id = $1 ORDER BY user_id, reserved_at`,
		offerID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	var out []*reservation.Reservation
	for rows.Next() {
		res, err := converter.ScanReservation(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservations", err)
	}
	return out, nil
}

func (r *ReservationRepository) scanOne(ctx context.Context, msg, query string, args ...any) (*reservation.Reservation, error) {
	res, err := converter.ScanReservation(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound(reservation.ErrNotFound, "reservation not found", err)
		}
		return nil, infra.WrapRepoErr(msg, err)
	}
	return res, nil
}
