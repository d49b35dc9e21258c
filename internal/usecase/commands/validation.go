package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/points"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/domain/validation"
	"groupbuy/internal/pkg/clock"
	"groupbuy/internal/pkg/errs"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
)

type ValidateResult struct {
	UserID        uuid.UUID
	ReservationID uuid.UUID
	OfferID       uuid.UUID
	Units         int
	Offer         *offer.Offer
	Completed     bool
}

type ValidationCommands interface {
	Validate(ctx context.Context, sess user.Session, qrToken string) (*ValidateResult, error)
}

type validationCommandsImpl struct {
	uow      shared.UnitOfWork
	cache    shared.TokenCache
	clock    clock.Clock
	metrics  *metrics.Engine
	cacheTTL time.Duration
}

// NewValidationCommands accepts a nil cache; tokens are then always resolved
// from the store.
func NewValidationCommands(uow shared.UnitOfWork, cache shared.TokenCache, clk clock.Clock, m *metrics.Engine, cacheTTL time.Duration) ValidationCommands {
	return &validationCommandsImpl{
		uow:      uow,
		cache:    cache,
		clock:    clk,
		metrics:  m,
		cacheTTL: cacheTTL,
	}
}

func (c *validationCommandsImpl) Validate(ctx context.Context, sess user.Session, qrToken string) (*ValidateResult, error) {
	storeID, err := sess.MerchantStore()
	if err != nil {
		return nil, err
	}
	token, err := validation.ParseToken(qrToken)
	if err != nil {
		c.metrics.Validation(outcomeLabel(err))
		return nil, err
	}
	key := token.String()

	cachedID, cached := c.lookupCache(ctx, key)

	var (
		result     *ValidateResult
		resolvedID uuid.UUID
		awarded    []points.Award
	)
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		result, awarded = nil, nil
		now := c.clock.Now()

		id := cachedID
		if !cached {
			var err error
			if id, err = resolveToken(ctx, tx, token); err != nil {
				return err
			}
		}
		resolvedID = id

		// Lock the offer first, then read the reservation under that lock.
		found, err := tx.Reservations().Get(ctx, id)
		if err != nil {
			return notFoundAsToken(err)
		}
		o, err := tx.Offers().GetForUpdate(ctx, found.OfferID())
		if err != nil {
			return err
		}
		r, err := tx.Reservations().Get(ctx, id)
		if err != nil {
			return notFoundAsToken(err)
		}

		out, err := validation.Validate(o, r, storeID, now)
		if err != nil {
			return err
		}

		if err := tx.Offers().UpdateCounters(ctx, o.ID(), shared.CounterDelta{Validated: r.Units()}, offer.StatusPickup, now); err != nil {
			return err
		}
		if err := tx.Reservations().Update(ctx, out.Reservation); err != nil {
			return err
		}
		tx.Changes().Record(
			shared.ReservationChanged(shared.OpUpdate, r.ID(), o.ID(), now),
			shared.OfferChanged(shared.OpUpdate, o.ID(), now),
		)

		awarded, err = applyAwards(ctx, tx, now, points.PickupValidatedAward(r.UserID(), r.ID()))
		if err != nil {
			return err
		}

		if out.Completed {
			if err := tx.Offers().UpdateStatus(ctx, o.ID(), offer.StatusPickup, offer.StatusCompleted, now); err != nil {
				return err
			}
			if err := enqueueOfferJob(ctx, tx, "offer_completed", out.Offer, now); err != nil {
				return err
			}
		}

		result = &ValidateResult{
			UserID:        r.UserID(),
			ReservationID: r.ID(),
			OfferID:       o.ID(),
			Units:         r.Units(),
			Offer:         out.Offer,
			Completed:     out.Completed,
		}
		return nil
	})

	c.metrics.Validation(outcomeLabel(err))
	if err != nil {
		// A stale cache entry must not keep answering for a missing reservation.
		if cached && errs.KindOf(err) == errs.KindNotFound {
			c.dropCache(ctx, key)
		} else if !cached && resolvedID != uuid.Nil {
			c.storeCache(ctx, key, resolvedID)
		}
		return nil, err
	}

	c.dropCache(ctx, key)
	recordAwards(c.metrics, awarded)
	if result.Completed {
		c.metrics.OfferTransitioned(offer.StatusCompleted.String())
		slog.Info("offer completed", "offer_id", result.OfferID)
	}
	return result, nil
}

func resolveToken(ctx context.Context, tx shared.Tx, token validation.Token) (uuid.UUID, error) {
	if token.IsDirect() {
		return token.ReservationID(), nil
	}
	o, err := tx.Offers().GetByQRCode(ctx, token.OfferCode())
	if err != nil {
		return uuid.Nil, notFoundAsToken(err)
	}
	r, err := tx.Reservations().FindLatest(ctx, o.ID(), token.UserID())
	if err != nil {
		return uuid.Nil, notFoundAsToken(err)
	}
	return r.ID(), nil
}

func notFoundAsToken(err error) error {
	if errors.Is(err, reservation.ErrNotFound) || errors.Is(err, offer.ErrNotFound) {
		return validation.ErrTokenNotFound
	}
	return err
}

func (c *validationCommandsImpl) lookupCache(ctx context.Context, key string) (uuid.UUID, bool) {
	if c.cache == nil {
		return uuid.Nil, false
	}
	id, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("qr token cache read failed", "error", err.Error())
		return uuid.Nil, false
	}
	return id, ok
}

func (c *validationCommandsImpl) storeCache(ctx context.Context, key string, id uuid.UUID) {
	if c.cache == nil || c.cacheTTL <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, id, c.cacheTTL); err != nil {
		slog.Warn("qr token cache write failed", "error", err.Error())
	}
}

func (c *validationCommandsImpl) dropCache(ctx context.Context, key string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Delete(ctx, key); err != nil {
		slog.Warn("qr token cache delete failed", "error", err.Error())
	}
}
