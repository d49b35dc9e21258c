package points

import (
	"fmt"
	"strings"
	"time"

	"groupbuy/internal/domain/tier"
	"groupbuy/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrNonPositiveAmount = errs.Define(errs.KindValidation, "award amount must be positive")
	ErrUnknownReason     = errs.Define(errs.KindValidation, "unknown award reason")
	ErrEmptyDedupeKey    = errs.Define(errs.KindValidation, "award dedupe key is required")
)

type Reason string

const (
	ReasonJoin            Reason = "join"
	ReasonTargetReached   Reason = "target_reached"
	ReasonShare           Reason = "share"
	ReasonPickupValidated Reason = "pickup_validated"
	ReasonDailyOpen       Reason = "daily_open"
)

var amounts = map[Reason]int64{
	ReasonJoin:            5,
	ReasonTargetReached:   20,
	ReasonShare:           5,
	ReasonPickupValidated: 15,
	ReasonDailyOpen:       1,
}

func (r Reason) String() string { return string(r) }

func (r Reason) IsValid() bool {
	_, ok := amounts[r]
	return ok
}

// Amount is the fixed number of points granted for the reason.
func (r Reason) Amount() int64 { return amounts[r] }

func ParseReason(s string) (Reason, error) {
	r := Reason(s)
	if !r.IsValid() {
		return "", ErrUnknownReason
	}
	return r, nil
}

// Award is one ledger entry. DedupeKey is unique per user: applying the same
// key twice credits once.
type Award struct {
	userID    uuid.UUID
	reason    Reason
	amount    int64
	dedupeKey string
}

func NewAward(userID uuid.UUID, amount int64, reason Reason, dedupeKey string) (Award, error) {
	if amount <= 0 {
		return Award{}, ErrNonPositiveAmount
	}
	if !reason.IsValid() {
		return Award{}, ErrUnknownReason
	}
	if strings.TrimSpace(dedupeKey) == "" {
		return Award{}, ErrEmptyDedupeKey
	}
	return Award{userID: userID, reason: reason, amount: amount, dedupeKey: dedupeKey}, nil
}

func fixed(userID uuid.UUID, reason Reason, key string) Award {
	return Award{userID: userID, reason: reason, amount: reason.Amount(), dedupeKey: key}
}

// JoinAward is granted for the first reservation on an offer only.
func JoinAward(userID, offerID uuid.UUID) Award {
	return fixed(userID, ReasonJoin, "join:"+offerID.String())
}

func TargetReachedAward(userID, offerID uuid.UUID) Award {
	return fixed(userID, ReasonTargetReached, "target:"+offerID.String())
}

func PickupValidatedAward(userID, reservationID uuid.UUID) Award {
	return fixed(userID, ReasonPickupValidated, "validated:"+reservationID.String())
}

// ShareAward uses ref to collapse retries of the same share action.
func ShareAward(userID uuid.UUID, ref string) Award {
	return fixed(userID, ReasonShare, "share:"+ref)
}

// DailyOpenAward is keyed by the calendar day of now in loc.
func DailyOpenAward(userID uuid.UUID, now time.Time, loc *time.Location) Award {
	if loc == nil {
		loc = time.UTC
	}
	return fixed(userID, ReasonDailyOpen, "daily:"+now.In(loc).Format(time.DateOnly))
}

func (a Award) UserID() uuid.UUID { return a.userID }
func (a Award) Reason() Reason    { return a.reason }
func (a Award) Amount() int64     { return a.amount }
func (a Award) DedupeKey() string { return a.dedupeKey }

func (a Award) String() string {
	return fmt.Sprintf("%s +%d (%s)", a.reason, a.amount, a.dedupeKey)
}

type Balance struct {
	UserID uuid.UUID
	Points int64
}

func (b Balance) Tier() tier.Tier { return tier.FromPoints(b.Points) }

// Apply returns the balance after crediting a. Points never decrease.
func (b Balance) Apply(a Award) Balance {
	if a.amount <= 0 {
		return b
	}
	return Balance{UserID: b.UserID, Points: b.Points + a.amount}
}
