package queries

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/queries/$GOFILE -package=queriesmock

import (
	"context"

	"groupbuy/internal/domain/user"
	"groupbuy/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrUserInactive = errs.Define(errs.KindAuthorization, "user inactive")

type UserQueries interface {
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*AuthorizedUserView, error)
}

type UserReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*AuthorizedUserView, error)
}

type userQueriesImpl struct {
	readStore UserReadStore
}

func NewUserQueries(readStore UserReadStore) UserQueries {
	return &userQueriesImpl{
		readStore: readStore,
	}
}

func (q *userQueriesImpl) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*AuthorizedUserView, error) {
	u, err := q.readStore.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, user.ErrNotFound)
	}

	if !u.IsActive {
		return nil, ErrUserInactive
	}

	return u, nil
}
