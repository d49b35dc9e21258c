package repository

import (
	"context"
	"time"

	"groupbuy/internal/domain/user"
	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
	"groupbuy/internal/infra/repository/converter"
	"groupbuy/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(db db.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.scanOne(ctx, "failed to find user by ID",
		`SELECT `+converter.UserColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.scanOne(ctx, "failed to find user by email",
		`SELECT `+converter.UserColumns+` FROM users WHERE email = $1 AND is_active = true`, email)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return infra.WrapRepoErr("failed to update user last login", err)
	}
	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, msg, query string, args ...any) (*user.User, error) {
	u, err := converter.ScanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.NotFound(user.ErrNotFound, "user not found", err)
		}
		return nil, infra.WrapRepoErr(msg, err)
	}
	return u, nil
}
