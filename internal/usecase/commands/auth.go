package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"errors"
	"log/slog"

	"groupbuy/internal/domain/auth"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/pkg/clock"
	"groupbuy/internal/pkg/jwt"
	"groupbuy/internal/pkg/password"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
)

type LoginResult struct {
	UserID      uuid.UUID
	Role        user.Role
	AccessToken string
}

type AuthCommands interface {
	Login(ctx context.Context, email, pw string) (*LoginResult, error)
}

type authCommandsImpl struct {
	uow        shared.UnitOfWork
	jwtService *jwt.Service
	clock      clock.Clock
}

func NewAuthCommands(uow shared.UnitOfWork, jwtService *jwt.Service, clk clock.Clock) AuthCommands {
	return &authCommandsImpl{
		uow:        uow,
		jwtService: jwtService,
		clock:      clk,
	}
}

func (a *authCommandsImpl) Login(ctx context.Context, email, pw string) (*LoginResult, error) {
	credentials, err := auth.NewCredentials(email, pw)
	if err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	var u *user.User
	err = a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		found, err := tx.Users().GetByEmail(ctx, credentials.Email().Value())
		if err != nil {
			return err
		}
		u = found
		return nil
	})
	if err != nil {
		// Same error as a password mismatch to prevent user enumeration
		if errors.Is(err, user.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := password.ComparePassword(u.PasswordHash(), credentials.Password().Value()); err != nil {
		return nil, auth.ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, auth.ErrInactiveUser
	}

	accessToken, err := a.jwtService.GenerateToken(u.ID(), u.Role(), u.StoreID())
	if err != nil {
		return nil, err
	}

	err = a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Users().UpdateLastLogin(ctx, u.ID(), a.clock.Now())
	})
	if err != nil {
		// Login was successful, only the last_login update failed
		slog.Warn("failed to update last login", "user_id", u.ID(), "error", err.Error())
	}

	return &LoginResult{
		UserID:      u.ID(),
		Role:        u.Role(),
		AccessToken: accessToken,
	}, nil
}
