package converter

import (
	"time"

	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/tier"
	"groupbuy/internal/pkg/errs"
	"groupbuy/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const ReservationColumns = `id, offer_id, user_id, units, total_price, level_snapshot, status,
	reserved_at, validated_at, cancelled_at, updated_at`

var ErrInvalidLevel = errs.Define(errs.KindInternal, "stored level snapshot is invalid")

func ScanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var (
		id, offerID, userID      uuid.UUID
		units                    int32
		total                    pgtype.Numeric
		level, status            string
		reservedAt, updatedAt    time.Time
		validatedAt, cancelledAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&id, &offerID, &userID, &units, &total, &level, &status,
		&reservedAt, &validatedAt, &cancelledAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	totalPrice, err := pgconv.DecimalFromNumeric(total)
	if err != nil {
		return nil, err
	}
	st, err := reservation.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	lv, ok := tier.Parse(level)
	if !ok {
		return nil, ErrInvalidLevel
	}

	return reservation.ReconstructReservation(
		id, offerID, userID,
		int(units),
		totalPrice,
		lv,
		st,
		reservedAt,
		pgconv.TimePtrFromPgtype(validatedAt), pgconv.TimePtrFromPgtype(cancelledAt),
		updatedAt,
	), nil
}

// ReservationArgs returns the insert arguments in ReservationColumns order.
func ReservationArgs(r *reservation.Reservation) []any {
	return []any{
		r.ID(), r.OfferID(), r.UserID(), int32(r.Units()), // #nosec G115 -- bounded by tier caps
		pgconv.DecimalToNumeric(r.TotalPrice()), r.LevelSnapshot().String(), r.Status().String(),
		r.ReservedAt(), pgconv.TimePtrToPgtype(r.ValidatedAt()), pgconv.TimePtrToPgtype(r.CancelledAt()),
		r.UpdatedAt(),
	}
}
