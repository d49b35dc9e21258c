package readstore

import (
	"context"

	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
	"groupbuy/internal/pkg/pgconv"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type UserReadStore struct {
	db db.DBTX
}

func NewUserReadStore(db db.DBTX) *UserReadStore {
	return &UserReadStore{db: db}
}

func (s *UserReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.AuthorizedUserView, error) {
	var (
		v       queries.AuthorizedUserView
		storeID pgtype.UUID
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, email, role, store_id, points, is_active FROM users WHERE id = $1`, id).
		Scan(&v.ID, &v.Email, &v.Role, &storeID, &v.Points, &v.IsActive)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user by ID", err)
	}
	v.StoreID = pgconv.UUIDPtrFromPgtype(storeID)
	return &v, nil
}
