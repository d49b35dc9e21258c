//go:build unit

package httperr_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"groupbuy/internal/domain/allocation"
	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/tier"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/domain/validation"
	"groupbuy/internal/handler/httperr"
	"groupbuy/internal/infra"
	"groupbuy/internal/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", offer.ErrInvalidPrice, http.StatusBadRequest},
		{"tier cap sentinel", allocation.ErrTierCapExceeded, http.StatusUnprocessableEntity},
		{"tier cap typed", &allocation.TierCapExceededError{Tier: tier.Bronze, Cap: 2, Requested: 3}, http.StatusUnprocessableEntity},
		{"not found", reservation.ErrNotFound, http.StatusNotFound},
		{"state conflict", &allocation.OfferNotActiveError{Status: offer.StatusPickup}, http.StatusConflict},
		{"capacity", &allocation.CapacityError{Available: 1}, http.StatusConflict},
		{"authorization", user.ErrNotMerchant, http.StatusForbidden},
		{"transient", errs.WithKind(errors.New("pool exhausted"), errs.KindTransient), http.StatusServiceUnavailable},
		{"repository conflict", infra.WrapRepoErr("update offer", nil, infra.KindConflict), http.StatusServiceUnavailable},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped keeps kind", errs.Wrap(validation.ErrWrongStore, "validate"), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, httperr.StatusOf(tc.err))
		})
	}
}

func abort(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	httperr.Abort(c, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestAbort(t *testing.T) {
	t.Run("client errors expose the message and detail", func(t *testing.T) {
		rec, body := abort(t, &allocation.CapacityError{Available: 2})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "not enough units left on the offer: 2 available", body["error"].(map[string]any)["message"])
		assert.Equal(t, map[string]any{"available": float64(2)}, body["detail"])
	})

	t.Run("tier cap detail", func(t *testing.T) {
		rec, body := abort(t, &allocation.TierCapExceededError{Tier: tier.Gold, Cap: 6, Requested: 7})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, map[string]any{"tier": "GOLD", "cap": float64(6), "requested": float64(7)}, body["detail"])
	})

	t.Run("server errors are generic", func(t *testing.T) {
		rec, body := abort(t, errors.New("pq: relation does not exist"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal error", body["error"].(map[string]any)["message"])
		assert.NotContains(t, body, "detail")
	})

	t.Run("transient errors ask for a retry", func(t *testing.T) {
		rec, body := abort(t, infra.WrapRepoErr("reserve", nil, infra.KindUnavailable))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "Service temporarily unavailable", body["error"].(map[string]any)["message"])
	})
}
