package queries

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/queries/$GOFILE -package=queriesmock

import (
	"context"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrNotOfferOwner = errs.Define(errs.KindAuthorization, "offer belongs to another store")

type OfferReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*OfferView, error)
	List(ctx context.Context, filter OfferListFilter) ([]*OfferView, error)
}

type ListOffersParams struct {
	Status  string
	StoreID *uuid.UUID
	Cursor  string
	Limit   int
}

type OfferQueries interface {
	Get(ctx context.Context, sess user.Session, id uuid.UUID) (*OfferView, error)
	List(ctx context.Context, p ListOffersParams) (*OfferPage, error)
	// ListReservations is restricted to the merchant that owns the offer.
	ListReservations(ctx context.Context, sess user.Session, offerID uuid.UUID) ([]*ReservationView, error)
}

type offerQueriesImpl struct {
	offers       OfferReadStore
	reservations ReservationReadStore
}

func NewOfferQueries(offers OfferReadStore, reservations ReservationReadStore) OfferQueries {
	return &offerQueriesImpl{
		offers:       offers,
		reservations: reservations,
	}
}

func (q *offerQueriesImpl) Get(ctx context.Context, sess user.Session, id uuid.UUID) (*OfferView, error) {
	v, err := q.offers.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, offer.ErrNotFound)
	}
	if store, err := sess.MerchantStore(); err != nil || store != v.StoreID {
		v.QRCode = nil
	}
	return v, nil
}

func (q *offerQueriesImpl) List(ctx context.Context, p ListOffersParams) (*OfferPage, error) {
	if p.Status != "" {
		if _, err := offer.ParseStatus(p.Status); err != nil {
			return nil, err
		}
	}
	after, err := ParseAfter(p.Cursor)
	if err != nil {
		return nil, err
	}
	limit := ValidateLimit(p.Limit)

	items, err := q.offers.List(ctx, OfferListFilter{
		Status:  p.Status,
		StoreID: p.StoreID,
		After:   after,
		Limit:   limit + 1,
	})
	if err != nil {
		return nil, err
	}
	for _, v := range items {
		v.QRCode = nil
	}

	page, next := nextCursor(items, limit, func(v *OfferView) (t time.Time, id uuid.UUID) {
		return v.CreatedAt, v.ID
	})
	return &OfferPage{Items: page, NextCursor: next}, nil
}

func (q *offerQueriesImpl) ListReservations(ctx context.Context, sess user.Session, offerID uuid.UUID) ([]*ReservationView, error) {
	store, err := sess.MerchantStore()
	if err != nil {
		return nil, err
	}
	v, err := q.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, notFoundAs(err, offer.ErrNotFound)
	}
	if v.StoreID != store {
		return nil, ErrNotOfferOwner
	}
	return q.reservations.ListByOffer(ctx, offerID)
}

func notFoundAs(err, domainErr error) error {
	if errs.KindOf(err) == errs.KindNotFound {
		return domainErr
	}
	return err
}
