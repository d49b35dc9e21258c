//go:build unit

package allocation_test

import (
	"testing"
	"time"

	"groupbuy/internal/domain/allocation"
	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/tier"
	"groupbuy/internal/pkg/errs"
	"groupbuy/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func request(units int, pts int64) allocation.Request {
	return allocation.Request{UserID: uuid.New(), Units: units, UserPoints: pts, Now: now}
}

func TestReserve(t *testing.T) {
	t.Run("new reservation snapshots tier and price", func(t *testing.T) {
		o := builder.NewOfferBuilder().WithTarget(3).BuildDomain()
		req := request(2, 0)

		out, err := allocation.Reserve(o, nil, req)
		require.NoError(t, err)
		assert.True(t, out.Created)
		assert.False(t, out.ReachedTarget)
		assert.Equal(t, 2, out.Offer.ReservedUnits())
		assert.Equal(t, 0, o.ReservedUnits(), "input snapshot is not mutated")
		assert.Equal(t, req.UserID, out.Reservation.UserID())
		assert.Equal(t, tier.Bronze, out.Reservation.LevelSnapshot())
		assert.Equal(t, "17", out.Reservation.TotalPrice().String())
		assert.Equal(t, reservation.StatusReserved, out.Reservation.Status())
	})

	t.Run("filling the last units reaches the target", func(t *testing.T) {
		o := builder.NewOfferBuilder().WithTarget(3).WithReserved(2).BuildDomain()

		out, err := allocation.Reserve(o, nil, request(1, 0))
		require.NoError(t, err)
		assert.True(t, out.ReachedTarget)
		assert.Equal(t, offer.StatusPickup, out.Offer.Status())
	})

	t.Run("adding units keeps the reservation and its level", func(t *testing.T) {
		o := builder.NewOfferBuilder().WithTarget(10).WithReserved(1).BuildDomain()
		existing := builder.NewReservationBuilder().ForOffer(o.ID()).WithUnits(1).BuildDomain()

		// The user has since climbed to GOLD; the snapshot stays BRONZE.
		out, err := allocation.Reserve(o, existing, allocation.Request{UserID: existing.UserID(), Units: 3, UserPoints: 250, Now: now})
		require.NoError(t, err)
		assert.False(t, out.Created)
		assert.Equal(t, existing.ID(), out.Reservation.ID())
		assert.Equal(t, 4, out.Reservation.Units())
		assert.Equal(t, tier.Bronze, out.Reservation.LevelSnapshot())
		assert.Equal(t, 4, out.Offer.ReservedUnits())
	})

	t.Run("tier cap counts units already held", func(t *testing.T) {
		o := builder.NewOfferBuilder().WithTarget(10).WithReserved(3).BuildDomain()
		existing := builder.NewReservationBuilder().ForOffer(o.ID()).WithUnits(3).BuildDomain()

		_, err := allocation.Reserve(o, existing, allocation.Request{UserID: existing.UserID(), Units: 2, UserPoints: 150, Now: now})
		var capErr *allocation.TierCapExceededError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, tier.Silver, capErr.Tier)
		assert.Equal(t, 4, capErr.Cap)
		assert.Equal(t, 5, capErr.Requested)
		assert.Equal(t, errs.KindValidation, errs.KindOf(err))
	})

	t.Run("gold cap boundary", func(t *testing.T) {
		o := builder.NewOfferBuilder().WithTarget(10).BuildDomain()

		_, err := allocation.Reserve(o, nil, request(7, 200))
		assert.ErrorIs(t, err, allocation.ErrTierCapExceeded)

		out, err := allocation.Reserve(o, nil, request(6, 200))
		require.NoError(t, err)
		assert.Equal(t, tier.Gold, out.Reservation.LevelSnapshot())
	})

	t.Run("capacity error reports what is left", func(t *testing.T) {
		o := builder.NewOfferBuilder().WithTarget(3).WithReserved(2).BuildDomain()

		_, err := allocation.Reserve(o, nil, request(2, 0))
		var capErr *allocation.CapacityError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 1, capErr.Available)
		assert.Equal(t, errs.KindCapacityExceeded, errs.KindOf(err))
		assert.Contains(t, err.Error(), "1 available")
	})

	t.Run("rejections", func(t *testing.T) {
		active := builder.NewOfferBuilder()
		cancelled := builder.NewReservationBuilder().WithStatus(reservation.StatusCancelled).BuildDomain()

		cases := []struct {
			name     string
			offer    *offer.Offer
			existing *reservation.Reservation
			req      allocation.Request
			want     error
		}{
			{"zero units", active.BuildDomain(), nil, request(0, 0), allocation.ErrInvalidQuantity},
			{"pickup offer", builder.NewOfferBuilder().WithStatus(offer.StatusPickup).BuildDomain(), nil, request(1, 0), allocation.ErrOfferNotActive},
			{"expired offer", builder.NewOfferBuilder().WithStatus(offer.StatusExpired).BuildDomain(), nil, request(1, 0), allocation.ErrOfferNotActive},
			{"overdue active offer", builder.NewOfferBuilder().ExpiringAt(now).BuildDomain(), nil, request(1, 0), allocation.ErrOfferExpired},
			{"cancelled reservation", active.BuildDomain(), cancelled, request(1, 0), allocation.ErrCannotResume},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				out, err := allocation.Reserve(tc.offer, tc.existing, tc.req)
				assert.ErrorIs(t, err, tc.want)
				assert.Nil(t, out.Offer)
			})
		}
	})

	t.Run("not active error carries the status", func(t *testing.T) {
		o := builder.NewOfferBuilder().WithStatus(offer.StatusCompleted).BuildDomain()

		_, err := allocation.Reserve(o, nil, request(1, 0))
		var notActive *allocation.OfferNotActiveError
		require.ErrorAs(t, err, &notActive)
		assert.Equal(t, offer.StatusCompleted, notActive.Status)
		assert.Equal(t, errs.KindStateConflict, errs.KindOf(err))
	})
}

func TestCancel(t *testing.T) {
	o := builder.NewOfferBuilder().WithTarget(5).WithReserved(3).BuildDomain()
	r := builder.NewReservationBuilder().ForOffer(o.ID()).WithUnits(2).BuildDomain()

	t.Run("releases units", func(t *testing.T) {
		out, err := allocation.Cancel(o, r, now)
		require.NoError(t, err)
		assert.Equal(t, 1, out.Offer.ReservedUnits())
		assert.Equal(t, reservation.StatusCancelled, out.Reservation.Status())
		require.NotNil(t, out.Reservation.CancelledAt())
		assert.Equal(t, now, *out.Reservation.CancelledAt())
	})

	t.Run("no reservation", func(t *testing.T) {
		_, err := allocation.Cancel(o, nil, now)
		assert.ErrorIs(t, err, reservation.ErrNotFound)
	})

	t.Run("offer past active", func(t *testing.T) {
		pickup := builder.NewOfferBuilder().WithTarget(2).WithReserved(2).WithStatus(offer.StatusPickup).BuildDomain()
		_, err := allocation.Cancel(pickup, r, now)
		assert.ErrorIs(t, err, allocation.ErrOfferNotActive)
	})

	t.Run("already cancelled", func(t *testing.T) {
		done := builder.NewReservationBuilder().ForOffer(o.ID()).WithStatus(reservation.StatusCancelled).BuildDomain()
		_, err := allocation.Cancel(o, done, now)
		assert.ErrorIs(t, err, reservation.ErrCancelled)
	})
}

func TestExpire(t *testing.T) {
	deadline := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	o := builder.NewOfferBuilder().WithTarget(5).WithReserved(3).ExpiringAt(deadline).BuildDomain()
	live := builder.NewReservationBuilder().ForOffer(o.ID()).WithUnits(3).BuildDomain()
	cancelled := builder.NewReservationBuilder().ForOffer(o.ID()).WithStatus(reservation.StatusCancelled).BuildDomain()

	t.Run("expires reserved entries only", func(t *testing.T) {
		out, err := allocation.Expire(o, []*reservation.Reservation{live, cancelled}, deadline.Add(time.Second))
		require.NoError(t, err)
		assert.True(t, out.Changed)
		assert.Equal(t, offer.StatusExpired, out.Offer.Status())
		require.Len(t, out.Expired, 1)
		assert.Equal(t, live.ID(), out.Expired[0].ID())
		assert.Equal(t, reservation.StatusExpired, out.Expired[0].Status())
	})

	t.Run("before the deadline nothing changes", func(t *testing.T) {
		out, err := allocation.Expire(o, []*reservation.Reservation{live}, deadline.Add(-time.Second))
		require.NoError(t, err)
		assert.False(t, out.Changed)
		assert.Empty(t, out.Expired)
		assert.Same(t, o, out.Offer)
	})

	t.Run("pickup offers never expire", func(t *testing.T) {
		pickup := builder.NewOfferBuilder().WithTarget(3).WithReserved(3).WithStatus(offer.StatusPickup).ExpiringAt(deadline).BuildDomain()
		out, err := allocation.Expire(pickup, nil, deadline.Add(48*time.Hour))
		require.NoError(t, err)
		assert.False(t, out.Changed)
		assert.Equal(t, offer.StatusPickup, out.Offer.Status())
	})

	t.Run("already expired is a no-op", func(t *testing.T) {
		expired := builder.NewOfferBuilder().WithStatus(offer.StatusExpired).ExpiringAt(deadline).BuildDomain()
		out, err := allocation.Expire(expired, nil, deadline.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, out.Changed)
	})
}
