package validation

import (
	"fmt"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/pkg/errs"
)

var (
	ErrTokenNotFound    = errs.Define(errs.KindNotFound, "qr token does not resolve to a reservation")
	ErrMalformedToken   = errs.Define(errs.KindValidation, "malformed qr token")
	ErrWrongStore       = errs.Define(errs.KindAuthorization, "reservation belongs to another store")
	ErrOfferNotInPickup = errs.Define(errs.KindStateConflict, "offer is not awaiting pickup")
	ErrMismatchedOffer  = errs.Define(errs.KindInternal, "reservation does not belong to the offer")
)

type OfferNotInPickupError struct {
	Status offer.Status
}

func (e *OfferNotInPickupError) Error() string {
	return fmt.Sprintf("%s: status is %s", ErrOfferNotInPickup.Error(), e.Status)
}

func (e *OfferNotInPickupError) Is(target error) bool { return target == ErrOfferNotInPickup }
func (e *OfferNotInPickupError) Kind() errs.Kind      { return errs.KindStateConflict }
