package queries

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/queries/$GOFILE -package=queriesmock

import (
	"context"
	"time"

	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/domain/validation"
	"groupbuy/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrReservationAccess = errs.Define(errs.KindAuthorization, "reservation belongs to another user")

type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	FindLatestByOfferAndUser(ctx context.Context, offerID, userID uuid.UUID) (*ReservationView, error)
	ListByOffer(ctx context.Context, offerID uuid.UUID) ([]*ReservationView, error)
	ListByUser(ctx context.Context, filter ReservationListFilter) ([]*ReservationView, error)
}

type ReservationQueries interface {
	GetMine(ctx context.Context, sess user.Session, offerID uuid.UUID) (*ReservationView, error)
	ListMine(ctx context.Context, sess user.Session, cursor string, limit int) (*ReservationPage, error)
	// Token returns the QR payload for a reservation owned by the caller.
	Token(ctx context.Context, sess user.Session, reservationID uuid.UUID) (string, error)
}

type reservationQueriesImpl struct {
	store ReservationReadStore
}

func NewReservationQueries(store ReservationReadStore) ReservationQueries {
	return &reservationQueriesImpl{store: store}
}

func (q *reservationQueriesImpl) GetMine(ctx context.Context, sess user.Session, offerID uuid.UUID) (*ReservationView, error) {
	if sess.IsZero() {
		return nil, user.ErrNoSession
	}
	v, err := q.store.FindLatestByOfferAndUser(ctx, offerID, sess.UserID)
	if err != nil {
		return nil, notFoundAs(err, reservation.ErrNotFound)
	}
	return v, nil
}

func (q *reservationQueriesImpl) ListMine(ctx context.Context, sess user.Session, cursor string, limit int) (*ReservationPage, error) {
	if sess.IsZero() {
		return nil, user.ErrNoSession
	}
	after, err := ParseAfter(cursor)
	if err != nil {
		return nil, err
	}
	limit = ValidateLimit(limit)

	items, err := q.store.ListByUser(ctx, ReservationListFilter{
		UserID: sess.UserID,
		After:  after,
		Limit:  limit + 1,
	})
	if err != nil {
		return nil, err
	}

	page, next := nextCursor(items, limit, func(v *ReservationView) (time.Time, uuid.UUID) {
		return v.ReservedAt, v.ID
	})
	return &ReservationPage{Items: page, NextCursor: next}, nil
}

func (q *reservationQueriesImpl) Token(ctx context.Context, sess user.Session, reservationID uuid.UUID) (string, error) {
	v, err := q.store.FindByID(ctx, reservationID)
	if err != nil {
		return "", notFoundAs(err, reservation.ErrNotFound)
	}
	if v.UserID != sess.UserID {
		return "", ErrReservationAccess
	}
	return validation.ForReservation(v.ID).String(), nil
}
