package readstore

import (
	"context"
	"fmt"
	"strings"

	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
	"groupbuy/internal/pkg/pgconv"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const offerViewColumns = `id, store_id, qr_code, product_name, normal_price, group_price,
	target_units, reserved_units, validated_units, status, created_at, expires_at, updated_at`

type OfferReadStore struct {
	db db.DBTX
}

func NewOfferReadStore(db db.DBTX) *OfferReadStore {
	return &OfferReadStore{db: db}
}

func (s *OfferReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.OfferView, error) {
	v, err := scanOfferView(s.db.QueryRow(ctx, `SELECT `+offerViewColumns+` FROM offers WHERE id = $1`, id))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("offer not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find offer by ID", err)
	}
	return v, nil
}

// List pages by (created_at, id) descending.
func (s *OfferReadStore) List(ctx context.Context, filter queries.OfferListFilter) ([]*queries.OfferView, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	if filter.StoreID != nil {
		where = append(where, "store_id = "+arg(*filter.StoreID))
	}
	if filter.After != nil {
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", arg(filter.After.At), arg(filter.After.ID)))
	}

	query := `SELECT ` + offerViewColumns + ` FROM offers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT " + arg(filter.Limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list offers", err)
	}
	defer rows.Close()

	var out []*queries.OfferView
	for rows.Next() {
		v, err := scanOfferView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan offer", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate offers", err)
	}
	return out, nil
}

func scanOfferView(row pgx.Row) (*queries.OfferView, error) {
	var (
		v                           queries.OfferView
		qrCode                      uuid.UUID
		normalPrice, groupPrice     pgtype.Numeric
		target, reserved, validated int32
	)
	if err := row.Scan(
		&v.ID, &v.StoreID, &qrCode, &v.ProductName, &normalPrice, &groupPrice,
		&target, &reserved, &validated, &v.Status,
		&v.CreatedAt, &v.ExpiresAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if v.NormalPrice, err = pgconv.DecimalFromNumeric(normalPrice); err != nil {
		return nil, err
	}
	if v.GroupPrice, err = pgconv.DecimalFromNumeric(groupPrice); err != nil {
		return nil, err
	}
	v.TargetUnits, v.ReservedUnits, v.ValidatedUnits = int(target), int(reserved), int(validated)
	v.QRCode = &qrCode
	return &v, nil
}
