package converter

import (
	"time"

	"groupbuy/internal/domain/user"
	"groupbuy/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const UserColumns = `id, email, password_hash, role, store_id, points, last_login, is_active, created_at, updated_at`

func ScanUser(row pgx.Row) (*user.User, error) {
	var (
		id                   uuid.UUID
		email, hash, role    string
		storeID              pgtype.UUID
		points               int64
		lastLogin            pgtype.Timestamptz
		isActive             bool
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &email, &hash, &role, &storeID, &points, &lastLogin, &isActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	r, err := user.NewRole(role)
	if err != nil {
		return nil, err
	}

	return user.ReconstructUser(
		id,
		user.ReconstructEmail(email),
		hash,
		r,
		pgconv.UUIDPtrFromPgtype(storeID),
		points,
		pgconv.TimePtrFromPgtype(lastLogin),
		isActive,
		createdAt, updatedAt,
	), nil
}
