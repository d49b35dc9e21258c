package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/infra"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
)

// Read stores see committed state only.

type OfferReadStore struct{ s *Store }

func NewOfferReadStore(s *Store) *OfferReadStore { return &OfferReadStore{s: s} }

func (r *OfferReadStore) FindByID(_ context.Context, id uuid.UUID) (*queries.OfferView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.offers[id]
	if !ok {
		return nil, infra.RepositoryErrorOf(infra.KindNotFound, "offer not found")
	}
	return toOfferView(o), nil
}

func (r *OfferReadStore) List(_ context.Context, filter queries.OfferListFilter) ([]*queries.OfferView, error) {
	r.s.mu.RLock()
	var out []*queries.OfferView
	for _, o := range r.s.offers {
		if filter.Status != "" && o.Status().String() != filter.Status {
			continue
		}
		if filter.StoreID != nil && o.StoreID() != *filter.StoreID {
			continue
		}
		if filter.After != nil && !keysetBefore(o.CreatedAt(), o.ID(), *filter.After) {
			continue
		}
		out = append(out, toOfferView(o))
	}
	r.s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *queries.OfferView) int { return keysetDesc(a.CreatedAt, a.ID, b.CreatedAt, b.ID) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type ReservationReadStore struct{ s *Store }

func NewReservationReadStore(s *Store) *ReservationReadStore { return &ReservationReadStore{s: s} }

func (r *ReservationReadStore) FindByID(_ context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, infra.RepositoryErrorOf(infra.KindNotFound, "reservation not found")
	}
	return r.viewLocked(res), nil
}

func (r *ReservationReadStore) FindLatestByOfferAndUser(_ context.Context, offerID, userID uuid.UUID) (*queries.ReservationView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var latest *reservation.Reservation
	for _, res := range r.s.reservations {
		if res.OfferID() != offerID || res.UserID() != userID {
			continue
		}
		if res.IsLive() {
			return r.viewLocked(res), nil
		}
		if latest == nil || res.ReservedAt().After(latest.ReservedAt()) {
			latest = res
		}
	}
	if latest == nil {
		return nil, infra.RepositoryErrorOf(infra.KindNotFound, "reservation not found")
	}
	return r.viewLocked(latest), nil
}

func (r *ReservationReadStore) ListByOffer(_ context.Context, offerID uuid.UUID) ([]*queries.ReservationView, error) {
	r.s.mu.RLock()
	var out []*queries.ReservationView
	for _, res := range r.s.reservations {
		if res.OfferID() == offerID {
			out = append(out, r.viewLocked(res))
		}
	}
	r.s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *queries.ReservationView) int { return -keysetDesc(a.ReservedAt, a.ID, b.ReservedAt, b.ID) })
	return out, nil
}

func (r *ReservationReadStore) ListByUser(_ context.Context, filter queries.ReservationListFilter) ([]*queries.ReservationView, error) {
	r.s.mu.RLock()
	var out []*queries.ReservationView
	for _, res := range r.s.reservations {
		if res.UserID() != filter.UserID {
			continue
		}
		if filter.After != nil && !keysetBefore(res.ReservedAt(), res.ID(), *filter.After) {
			continue
		}
		out = append(out, r.viewLocked(res))
	}
	r.s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *queries.ReservationView) int { return keysetDesc(a.ReservedAt, a.ID, b.ReservedAt, b.ID) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *ReservationReadStore) viewLocked(res *reservation.Reservation) *queries.ReservationView {
	v := &queries.ReservationView{
		ID:            res.ID(),
		OfferID:       res.OfferID(),
		UserID:        res.UserID(),
		Units:         res.Units(),
		TotalPrice:    res.TotalPrice(),
		LevelSnapshot: res.LevelSnapshot().String(),
		Status:        res.Status().String(),
		ReservedAt:    res.ReservedAt(),
		ValidatedAt:   res.ValidatedAt(),
		CancelledAt:   res.CancelledAt(),
		UpdatedAt:     res.UpdatedAt(),
	}
	if o, ok := r.s.offers[res.OfferID()]; ok {
		v.ProductName = o.ProductName()
	}
	if u, ok := r.s.users[res.UserID()]; ok {
		v.UserEmail = u.Email().Value()
	}
	return v
}

type UserReadStore struct{ s *Store }

func NewUserReadStore(s *Store) *UserReadStore { return &UserReadStore{s: s} }

func (r *UserReadStore) FindByID(_ context.Context, id uuid.UUID) (*queries.AuthorizedUserView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.userLocked(id)
	if !ok {
		return nil, infra.RepositoryErrorOf(infra.KindNotFound, "user not found")
	}
	return &queries.AuthorizedUserView{
		ID:       u.ID(),
		Email:    u.Email().Value(),
		Role:     u.Role().String(),
		StoreID:  u.StoreID(),
		Points:   u.Points(),
		IsActive: u.IsActive(),
	}, nil
}

func toOfferView(o *offer.Offer) *queries.OfferView {
	qr := o.QRCode()
	return &queries.OfferView{
		ID:             o.ID(),
		StoreID:        o.StoreID(),
		ProductName:    o.ProductName(),
		NormalPrice:    o.NormalPrice(),
		GroupPrice:     o.GroupPrice(),
		TargetUnits:    o.TargetUnits(),
		ReservedUnits:  o.ReservedUnits(),
		ValidatedUnits: o.ValidatedUnits(),
		Status:         o.Status().String(),
		CreatedAt:      o.CreatedAt(),
		ExpiresAt:      o.ExpiresAt(),
		UpdatedAt:      o.UpdatedAt(),
		QRCode:         &qr,
	}
}

// Cursors carry microseconds, so comparisons truncate to match.
func keysetBefore(at time.Time, id uuid.UUID, pos queries.KeysetPosition) bool {
	return keysetDesc(at, id, pos.At, pos.ID) > 0
}

// keysetDesc orders (at, id) newest first.
func keysetDesc(aAt time.Time, aID uuid.UUID, bAt time.Time, bID uuid.UUID) int {
	if c := bAt.Truncate(time.Microsecond).Compare(aAt.Truncate(time.Microsecond)); c != 0 {
		return c
	}
	return strings.Compare(bID.String(), aID.String())
}
