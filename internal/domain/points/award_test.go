//go:build unit

package points_test

import (
	"testing"
	"time"

	"groupbuy/internal/domain/points"
	"groupbuy/internal/domain/tier"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedAwards(t *testing.T) {
	userID, offerID := uuid.New(), uuid.New()

	cases := []struct {
		name   string
		award  points.Award
		reason points.Reason
		amount int64
	}{
		{"join", points.JoinAward(userID, offerID), points.ReasonJoin, 5},
		{"target reached", points.TargetReachedAward(userID, offerID), points.ReasonTargetReached, 20},
		{"share", points.ShareAward(userID, "ref-1"), points.ReasonShare, 5},
		{"pickup validated", points.PickupValidatedAward(userID, uuid.New()), points.ReasonPickupValidated, 15},
		{"daily open", points.DailyOpenAward(userID, time.Now(), nil), points.ReasonDailyOpen, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, userID, tc.award.UserID())
			assert.Equal(t, tc.reason, tc.award.Reason())
			assert.Equal(t, tc.amount, tc.award.Amount())
			assert.Equal(t, tc.amount, tc.reason.Amount())
			assert.NotEmpty(t, tc.award.DedupeKey())
		})
	}
}

func TestDedupeKeys(t *testing.T) {
	userID, offerID := uuid.New(), uuid.New()

	assert.Equal(t, points.JoinAward(userID, offerID).DedupeKey(), points.JoinAward(uuid.New(), offerID).DedupeKey(),
		"keys are scoped per user by the ledger, not the key")
	assert.NotEqual(t, points.JoinAward(userID, offerID).DedupeKey(), points.TargetReachedAward(userID, offerID).DedupeKey())
	assert.NotEqual(t, points.ShareAward(userID, "a").DedupeKey(), points.ShareAward(userID, "b").DedupeKey())

	t.Run("daily open is keyed by calendar day in the location", func(t *testing.T) {
		jst := time.FixedZone("JST", 9*60*60)
		morning := time.Date(2025, 3, 1, 0, 30, 0, 0, time.UTC)
		evening := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)

		assert.Equal(t, points.DailyOpenAward(userID, morning, time.UTC).DedupeKey(), points.DailyOpenAward(userID, evening, time.UTC).DedupeKey())
		assert.NotEqual(t, points.DailyOpenAward(userID, morning, jst).DedupeKey(), points.DailyOpenAward(userID, evening, jst).DedupeKey())
		assert.Equal(t, "daily:2025-03-02", points.DailyOpenAward(userID, evening, jst).DedupeKey())
	})
}

func TestNewAward(t *testing.T) {
	userID := uuid.New()

	a, err := points.NewAward(userID, 7, points.ReasonShare, "promo")
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.Amount())
	assert.Equal(t, "share +7 (promo)", a.String())

	_, err = points.NewAward(userID, 0, points.ReasonShare, "promo")
	assert.ErrorIs(t, err, points.ErrNonPositiveAmount)
	_, err = points.NewAward(userID, -3, points.ReasonShare, "promo")
	assert.ErrorIs(t, err, points.ErrNonPositiveAmount)
	_, err = points.NewAward(userID, 1, points.Reason("refund"), "promo")
	assert.ErrorIs(t, err, points.ErrUnknownReason)
	_, err = points.NewAward(userID, 1, points.ReasonShare, "  ")
	assert.ErrorIs(t, err, points.ErrEmptyDedupeKey)
}

func TestBalance(t *testing.T) {
	b := points.Balance{UserID: uuid.New(), Points: 95}
	assert.Equal(t, tier.Bronze, b.Tier())

	b = b.Apply(points.ShareAward(b.UserID, "x"))
	assert.Equal(t, int64(100), b.Points)
	assert.Equal(t, tier.Silver, b.Tier())

	// Zero-value awards never move the balance.
	assert.Equal(t, b, b.Apply(points.Award{}))
}

func TestParseReason(t *testing.T) {
	r, err := points.ParseReason("pickup_validated")
	require.NoError(t, err)
	assert.Equal(t, points.ReasonPickupValidated, r)

	_, err = points.ParseReason("PICKUP_VALIDATED")
	assert.ErrorIs(t, err, points.ErrUnknownReason)
}
