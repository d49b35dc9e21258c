package readstore

import (
	"context"
	"fmt"

	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
	"groupbuy/internal/pkg/pgconv"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const reservationViewSelect = `SELECT r.id, r.offer_id, o.product_name, r.user_id, u.email,
	r.units, r.total_price, r.level_snapshot, r.status,
	r.reserved_at, r.validated_at, r.cancelled_at, r.updated_at
	FROM reservations r
	JOIN offers o ON o.id = r.offer_id
	JOIN users u ON u.id = r.user_id`

type ReservationReadStore struct {
	db db.DBTX
}

func NewReservationReadStore(db db.DBTX) *ReservationReadStore {
	return &ReservationReadStore{db: db}
}

func (s *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	return s.scanOne(ctx, "failed to find reservation by ID", reservationViewSelect+` WHERE r.id = $1`, id)
}

func (s *ReservationReadStore) FindLatestByOfferAndUser(ctx context.Context, offerID, userID uuid.UUID) (*queries.ReservationView, error) {
	return s.scanOne(ctx, "failed to find reservation",
		reservationViewSelect+` WHERE r.offer_id = $1 AND r.user_id = $2
		ORDER BY (r.status = 'CANCELLED'), r.reserved_at DESC LIMIT 1`, offerID, userID)
}

func (s *ReservationReadStore) ListByOffer(ctx context.Context, offerID uuid.UUID) ([]*queries.ReservationView, error) {
	return s.scanMany(ctx, reservationViewSelect+` WHERE r.offer_id = $1 ORDER BY r.reserved_at, r.id`, offerID)
}

func (s *ReservationReadStore) ListByUser(ctx context.Context, filter queries.ReservationListFilter) ([]*queries.ReservationView, error) {
	if filter.After != nil {
		return s.scanMany(ctx,
			reservationViewSelect+` WHERE r.user_id = $1 AND (r.reserved_at, r.id) < ($2, $3)
			ORDER BY r.reserved_at DESC, r.id DESC LIMIT $4`,
			filter.UserID, filter.After.At, filter.After.ID, filter.Limit)
	}
	return s.scanMany(ctx,
		reservationViewSelect+` WHERE r.user_id = $1 ORDER BY r.reserved_at DESC, r.id DESC LIMIT $2`,
		filter.UserID, filter.Limit)
}

func (s *ReservationReadStore) scanOne(ctx context.Context, msg, query string, args ...any) (*queries.ReservationView, error) {
	v, err := scanReservationView(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr(msg, err)
	}
	return v, nil
}

func (s *ReservationReadStore) scanMany(ctx context.Context, query string, args ...any) ([]*queries.ReservationView, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	var out []*queries.ReservationView
	for rows.Next() {
		v, err := scanReservationView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservations", err)
	}
	return out, nil
}

func scanReservationView(row pgx.Row) (*queries.ReservationView, error) {
	var (
		v                        queries.ReservationView
		units                    int32
		total                    pgtype.Numeric
		validatedAt, cancelledAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&v.ID, &v.OfferID, &v.ProductName, &v.UserID, &v.UserEmail,
		&units, &total, &v.LevelSnapshot, &v.Status,
		&v.ReservedAt, &validatedAt, &cancelledAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}

	price, err := pgconv.DecimalFromNumeric(total)
	if err != nil {
		return nil, fmt.Errorf("total_price: %w", err)
	}
	v.Units = int(units)
	v.TotalPrice = price
	v.ValidatedAt = pgconv.TimePtrFromPgtype(validatedAt)
	v.CancelledAt = pgconv.TimePtrFromPgtype(cancelledAt)
	return &v, nil
}
