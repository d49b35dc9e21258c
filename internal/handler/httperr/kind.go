package httperr

import (
	"errors"
	"net/http"

	"groupbuy/internal/domain/allocation"
	"groupbuy/internal/domain/validation"
	"groupbuy/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type kinded interface {
	error
	Kind() errs.Kind
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		if errors.Is(err, allocation.ErrTierCapExceeded) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadRequest
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindStateConflict, errs.KindCapacityExceeded:
		return http.StatusConflict
	case errs.KindAuthorization:
		return http.StatusForbidden
	case errs.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Abort writes the response for a usecase error. Client errors carry the
// message of the classified error; server errors get a generic one.
func Abort(c *gin.Context, err error) {
	status := StatusOf(err)
	var msg string
	switch {
	case status == http.StatusServiceUnavailable:
		msg = "Service temporarily unavailable"
	case status >= http.StatusInternalServerError:
		msg = "Internal error"
	default:
		msg = publicMessage(err)
	}
	AbortWithError(c, status, err, msg, detailOf(err))
}

func publicMessage(err error) string {
	var k kinded
	if errors.As(err, &k) {
		return k.Error()
	}
	return err.Error()
}

func detailOf(err error) any {
	var capErr *allocation.CapacityError
	if errors.As(err, &capErr) {
		return gin.H{"available": capErr.Available}
	}
	var tierErr *allocation.TierCapExceededError
	if errors.As(err, &tierErr) {
		return gin.H{"tier": tierErr.Tier.String(), "cap": tierErr.Cap, "requested": tierErr.Requested}
	}
	var inactive *allocation.OfferNotActiveError
	if errors.As(err, &inactive) {
		return gin.H{"status": inactive.Status.String()}
	}
	var pickup *validation.OfferNotInPickupError
	if errors.As(err, &pickup) {
		return gin.H{"status": pickup.Status.String()}
	}
	return nil
}
