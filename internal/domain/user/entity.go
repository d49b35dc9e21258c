package user

import (
	"time"

	"groupbuy/internal/domain/tier"

	"github.com/google/uuid"
)

type User struct {
	id           uuid.UUID
	email        Email
	passwordHash string
	role         Role
	storeID      *uuid.UUID
	points       int64
	lastLogin    *time.Time
	isActive     bool
	createdAt    time.Time
	updatedAt    time.Time
}

func NewUser(email Email, passwordHash string, role Role, storeID *uuid.UUID) (*User, error) {
	if role == RoleMerchant && storeID == nil {
		return nil, ErrMerchantWithoutStore
	}
	return &User{
		id:           uuid.New(),
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		storeID:      storeID,
		isActive:     true,
	}, nil
}

func ReconstructUser(
	id uuid.UUID,
	email Email,
	passwordHash string,
	role Role,
	storeID *uuid.UUID,
	points int64,
	lastLogin *time.Time,
	isActive bool,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:           id,
		email:        email,
		passwordHash: passwordHash,
		role:         role,
		storeID:      storeID,
		points:       points,
		lastLogin:    lastLogin,
		isActive:     isActive,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (u *User) ID() uuid.UUID         { return u.id }
func (u *User) Email() Email          { return u.email }
func (u *User) PasswordHash() string  { return u.passwordHash }
func (u *User) Role() Role            { return u.role }
func (u *User) StoreID() *uuid.UUID   { return u.storeID }
func (u *User) Points() int64         { return u.points }
func (u *User) LastLogin() *time.Time { return u.lastLogin }
func (u *User) IsActive() bool        { return u.isActive }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }

// Tier is derived from points on every read and never stored.
func (u *User) Tier() tier.Tier { return tier.FromPoints(u.points) }
