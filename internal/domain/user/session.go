package user

import (
	"groupbuy/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrNotMerchant = errs.Define(errs.KindAuthorization, "merchant role with a store is required")
	ErrNotShopper  = errs.Define(errs.KindAuthorization, "shopper role is required")
	ErrNoSession   = errs.Define(errs.KindAuthorization, "authentication required")
)

// Session identifies the caller of a single request. It is built from the
// access token and passed explicitly into every command.
type Session struct {
	UserID  uuid.UUID
	Role    Role
	StoreID *uuid.UUID
}

func NewSession(userID uuid.UUID, role Role, storeID *uuid.UUID) Session {
	return Session{UserID: userID, Role: role, StoreID: storeID}
}

func (s Session) IsZero() bool { return s.UserID == uuid.Nil }

// MerchantStore returns the store a merchant acts for. Admins act for the
// store in their token if one is present.
func (s Session) MerchantStore() (uuid.UUID, error) {
	if s.Role != RoleMerchant && s.Role != RoleAdmin {
		return uuid.Nil, ErrNotMerchant
	}
	if s.StoreID == nil || *s.StoreID == uuid.Nil {
		return uuid.Nil, ErrNotMerchant
	}
	return *s.StoreID, nil
}

// RequireShopper admits anyone who can hold reservations.
func (s Session) RequireShopper() error {
	if s.IsZero() {
		return ErrNoSession
	}
	if s.Role != RoleShopper && s.Role != RoleAdmin {
		return ErrNotShopper
	}
	return nil
}
