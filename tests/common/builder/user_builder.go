//go:build unit || e2e

package builder

import (
	"time"

	"groupbuy/internal/domain/user"
	"groupbuy/internal/usecase/queries"

	"github.com/google/uuid"
)

type UserBuilder struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	StoreID      *uuid.UUID
	Points       int64
	IsActive     bool
}

func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		ID:           uuid.New(),
		Email:        "test@example.com",
		PasswordHash: "hashed_password",
		Role:         "shopper",
		IsActive:     true,
	}
}

func (u *UserBuilder) With(mutate func(*UserBuilder)) *UserBuilder {
	mutate(u)
	return u
}

// Build methods
func (u *UserBuilder) BuildDomain() (*user.User, error) {
	email, err := user.NewEmail(u.Email)
	if err != nil {
		return nil, err
	}

	role, err := user.NewRole(u.Role)
	if err != nil {
		return nil, err
	}

	return user.NewUser(email, u.PasswordHash, role, u.StoreID)
}

// BuildStored returns the user as a repository would load it.
func (u *UserBuilder) BuildStored() *user.User {
	now := time.Now()
	return user.ReconstructUser(u.ID, user.ReconstructEmail(u.Email), u.PasswordHash, user.Role(u.Role),
		u.StoreID, u.Points, nil, u.IsActive, now, now)
}

func (u *UserBuilder) BuildReadModel() *queries.AuthorizedUserView {
	return &queries.AuthorizedUserView{
		ID:       u.ID,
		Email:    u.Email,
		Role:     u.Role,
		StoreID:  u.StoreID,
		Points:   u.Points,
		IsActive: u.IsActive,
	}
}

func (u *UserBuilder) BuildSession() user.Session {
	return user.NewSession(u.ID, user.Role(u.Role), u.StoreID)
}

// Fluent builder methods
func (u *UserBuilder) WithEmail(email string) *UserBuilder {
	u.Email = email
	return u
}

func (u *UserBuilder) WithRole(role string) *UserBuilder {
	u.Role = role
	return u
}

func (u *UserBuilder) WithPasswordHash(hash string) *UserBuilder {
	u.PasswordHash = hash
	return u
}

func (u *UserBuilder) WithPoints(points int64) *UserBuilder {
	u.Points = points
	return u
}

// AsMerchant makes the user a merchant of storeID.
func (u *UserBuilder) AsMerchant(storeID uuid.UUID) *UserBuilder {
	u.Role = "merchant"
	u.StoreID = &storeID
	return u
}

func (u *UserBuilder) AsInactive() *UserBuilder {
	u.IsActive = false
	return u
}
