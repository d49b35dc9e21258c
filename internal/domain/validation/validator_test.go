//go:build unit

package validation_test

import (
	"strings"
	"testing"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/validation"
	"groupbuy/internal/pkg/errs"
	"groupbuy/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	resID := uuid.New()
	code, userID := uuid.New(), uuid.New()

	t.Run("bare reservation id", func(t *testing.T) {
		tok, err := validation.ParseToken("  " + resID.String() + "\n")
		require.NoError(t, err)
		assert.True(t, tok.IsDirect())
		assert.Equal(t, resID, tok.ReservationID())
		assert.Equal(t, validation.ForReservation(resID), tok)
		assert.Equal(t, resID.String(), tok.String())
	})

	t.Run("offer code and participant", func(t *testing.T) {
		raw := code.String() + ":" + userID.String()
		tok, err := validation.ParseToken(raw)
		require.NoError(t, err)
		assert.False(t, tok.IsDirect())
		assert.Equal(t, code, tok.OfferCode())
		assert.Equal(t, userID, tok.UserID())
		assert.Equal(t, validation.ForParticipant(code, userID), tok)
		assert.Equal(t, raw, tok.String())
	})

	t.Run("malformed", func(t *testing.T) {
		for _, raw := range []string{
			"",
			"   ",
			"not-a-uuid",
			uuid.Nil.String(),
			code.String() + ":",
			":" + userID.String(),
			code.String() + ":" + uuid.Nil.String(),
			code.String() + ":" + userID.String() + ":" + userID.String(),
			strings.Repeat("f", 36),
		} {
			_, err := validation.ParseToken(raw)
			assert.ErrorIs(t, err, validation.ErrMalformedToken, "%q", raw)
		}
	})
}

func TestValidate(t *testing.T) {
	storeID := uuid.New()
	at := time.Date(2025, 3, 2, 10, 30, 0, 0, time.UTC)
	pickup := func() *builder.OfferBuilder {
		return builder.NewOfferBuilder().WithStore(storeID).WithTarget(3).WithReserved(3).WithStatus(offer.StatusPickup)
	}

	t.Run("counts units and completes on the last pickup", func(t *testing.T) {
		o := pickup().WithValidated(1).BuildDomain()
		r := builder.NewReservationBuilder().ForOffer(o.ID()).WithUnits(2).BuildDomain()

		out, err := validation.Validate(o, r, storeID, at)
		require.NoError(t, err)
		assert.True(t, out.Completed)
		assert.Equal(t, offer.StatusCompleted, out.Offer.Status())
		assert.Equal(t, 3, out.Offer.ValidatedUnits())
		assert.Equal(t, reservation.StatusValidated, out.Reservation.Status())
		require.NotNil(t, out.Reservation.ValidatedAt())
		assert.Equal(t, at, *out.Reservation.ValidatedAt())
	})

	t.Run("partial pickup stays in pickup", func(t *testing.T) {
		o := pickup().BuildDomain()
		r := builder.NewReservationBuilder().ForOffer(o.ID()).WithUnits(1).BuildDomain()

		out, err := validation.Validate(o, r, storeID, at)
		require.NoError(t, err)
		assert.False(t, out.Completed)
		assert.Equal(t, offer.StatusPickup, out.Offer.Status())
	})

	t.Run("expiry does not apply once in pickup", func(t *testing.T) {
		o := pickup().ExpiringAt(at.Add(-time.Hour)).BuildDomain()
		r := builder.NewReservationBuilder().ForOffer(o.ID()).BuildDomain()

		_, err := validation.Validate(o, r, storeID, at)
		assert.NoError(t, err)
	})

	t.Run("rejections", func(t *testing.T) {
		o := pickup().BuildDomain()
		cases := []struct {
			name  string
			offer *offer.Offer
			res   *reservation.Reservation
			store uuid.UUID
			want  error
			kind  errs.Kind
		}{
			{"other store", o, builder.NewReservationBuilder().ForOffer(o.ID()).BuildDomain(), uuid.New(), validation.ErrWrongStore, errs.KindAuthorization},
			{"already validated", o, builder.NewReservationBuilder().ForOffer(o.ID()).ValidatedOn(at).BuildDomain(), storeID, reservation.ErrAlreadyValidated, errs.KindStateConflict},
			{"cancelled", o, builder.NewReservationBuilder().ForOffer(o.ID()).WithStatus(reservation.StatusCancelled).BuildDomain(), storeID, reservation.ErrCancelled, errs.KindStateConflict},
			{"reservation of another offer", o, builder.NewReservationBuilder().BuildDomain(), storeID, validation.ErrMismatchedOffer, errs.KindInternal},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := validation.Validate(tc.offer, tc.res, tc.store, at)
				assert.ErrorIs(t, err, tc.want)
				assert.Equal(t, tc.kind, errs.KindOf(err))
			})
		}
	})

	t.Run("offer not in pickup", func(t *testing.T) {
		for _, st := range []offer.Status{offer.StatusActive, offer.StatusExpired, offer.StatusCompleted} {
			o := builder.NewOfferBuilder().WithStore(storeID).WithStatus(st).BuildDomain()
			r := builder.NewReservationBuilder().ForOffer(o.ID()).BuildDomain()

			_, err := validation.Validate(o, r, storeID, at)
			var notPickup *validation.OfferNotInPickupError
			require.ErrorAs(t, err, &notPickup, st)
			assert.Equal(t, st, notPickup.Status)
			assert.ErrorIs(t, err, validation.ErrOfferNotInPickup)
		}
	})

	t.Run("foreign store learns nothing about state", func(t *testing.T) {
		o := builder.NewOfferBuilder().WithStatus(offer.StatusActive).BuildDomain()
		r := builder.NewReservationBuilder().ForOffer(o.ID()).ValidatedOn(at).BuildDomain()

		_, err := validation.Validate(o, r, uuid.New(), at)
		assert.ErrorIs(t, err, validation.ErrWrongStore)
	})
}
