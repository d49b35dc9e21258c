package converter

import (
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const OfferColumns = `id, store_id, qr_code, product_name, normal_price, group_price,
	target_units, reserved_units, validated_units, status, created_at, expires_at, updated_at`

func ScanOffer(row pgx.Row) (*offer.Offer, error) {
	var (
		id, storeID, qrCode             uuid.UUID
		productName, status             string
		normalPrice, groupPrice         pgtype.Numeric
		target, reserved, validated     int32
		createdAt, expiresAt, updatedAt time.Time
	)
	if err := row.Scan(
		&id, &storeID, &qrCode, &productName, &normalPrice, &groupPrice,
		&target, &reserved, &validated, &status,
		&createdAt, &expiresAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	normal, err := pgconv.DecimalFromNumeric(normalPrice)
	if err != nil {
		return nil, err
	}
	group, err := pgconv.DecimalFromNumeric(groupPrice)
	if err != nil {
		return nil, err
	}
	st, err := offer.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	return offer.ReconstructOffer(
		id, storeID, qrCode,
		productName,
		normal, group,
		int(target), int(reserved), int(validated),
		st,
		createdAt, expiresAt, updatedAt,
	), nil
}

// OfferArgs returns the insert arguments in OfferColumns order.
func OfferArgs(o *offer.Offer) []any {
	return []any{
		o.ID(), o.StoreID(), o.QRCode(), o.ProductName(),
		pgconv.DecimalToNumeric(o.NormalPrice()), pgconv.DecimalToNumeric(o.GroupPrice()),
		int32(o.TargetUnits()), int32(o.ReservedUnits()), int32(o.ValidatedUnits()), // #nosec G115 -- bounded by CHECK constraints
		o.Status().String(), o.CreatedAt(), o.ExpiresAt(), o.UpdatedAt(),
	}
}
