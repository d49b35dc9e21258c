package allocation

import (
	"fmt"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/tier"
	"groupbuy/internal/pkg/errs"
)

var (
	ErrInvalidQuantity      = errs.Define(errs.KindValidation, "units must be at least 1")
	ErrTierCapExceeded      = errs.Define(errs.KindValidation, "requested units exceed the tier cap")
	ErrOfferNotActive       = errs.Define(errs.KindStateConflict, "offer is not accepting reservations")
	ErrOfferExpired         = errs.Define(errs.KindStateConflict, "offer has expired")
	ErrInsufficientCapacity = errs.Define(errs.KindCapacityExceeded, "not enough units left on the offer")
	ErrCannotResume         = errs.Define(errs.KindStateConflict, "reservation was cancelled and cannot be resumed")
)

// TierCapExceededError reports the cap that was hit. Requested is the
// cumulative total the reservation would have reached.
type TierCapExceededError struct {
	Tier      tier.Tier
	Cap       int
	Requested int
}

func (e *TierCapExceededError) Error() string {
	return fmt.Sprintf("%s: %d requested, %s cap is %d", ErrTierCapExceeded.Error(), e.Requested, e.Tier, e.Cap)
}

func (e *TierCapExceededError) Is(target error) bool { return target == ErrTierCapExceeded }
func (e *TierCapExceededError) Kind() errs.Kind      { return errs.KindValidation }

// OfferNotActiveError carries the status that blocked the call.
type OfferNotActiveError struct {
	Status offer.Status
}

func (e *OfferNotActiveError) Error() string {
	return fmt.Sprintf("%s: status is %s", ErrOfferNotActive.Error(), e.Status)
}

func (e *OfferNotActiveError) Is(target error) bool { return target == ErrOfferNotActive }
func (e *OfferNotActiveError) Kind() errs.Kind      { return errs.KindStateConflict }

// CapacityError reports how many units are still available so the caller
// can retry with a smaller quantity.
type CapacityError struct {
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: %d available", ErrInsufficientCapacity.Error(), e.Available)
}

func (e *CapacityError) Is(target error) bool { return target == ErrInsufficientCapacity }
func (e *CapacityError) Kind() errs.Kind      { return errs.KindCapacityExceeded }
