package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"log/slog"
	"time"

	"groupbuy/internal/domain/allocation"
	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/pkg/clock"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOfferParams struct {
	ProductName string
	NormalPrice decimal.Decimal
	GroupPrice  decimal.Decimal
	TargetUnits int
	ExpiresAt   time.Time
}

type OfferCommands interface {
	Create(ctx context.Context, sess user.Session, p CreateOfferParams) (*offer.Offer, error)
	// ExpireDue expires every ACTIVE offer whose expiry has passed and returns
	// how many were expired.
	ExpireDue(ctx context.Context) (int, error)
}

type offerCommandsImpl struct {
	uow       shared.UnitOfWork
	clock     clock.Clock
	metrics   *metrics.Engine
	batchSize int
}

func NewOfferCommands(uow shared.UnitOfWork, clk clock.Clock, m *metrics.Engine, batchSize int) OfferCommands {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &offerCommandsImpl{
		uow:       uow,
		clock:     clk,
		metrics:   m,
		batchSize: batchSize,
	}
}

func (c *offerCommandsImpl) Create(ctx context.Context, sess user.Session, p CreateOfferParams) (*offer.Offer, error) {
	storeID, err := sess.MerchantStore()
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	o, err := offer.NewOffer(offer.NewParams{
		StoreID:     storeID,
		ProductName: p.ProductName,
		NormalPrice: p.NormalPrice,
		GroupPrice:  p.GroupPrice,
		TargetUnits: p.TargetUnits,
		ExpiresAt:   p.ExpiresAt,
	}, now)
	if err != nil {
		return nil, err
	}

	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Offers().Create(ctx, o); err != nil {
			return err
		}
		tx.Changes().Record(shared.OfferChanged(shared.OpInsert, o.ID(), now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ExpireDue pages through overdue offers until none are left. Offers already
// tried in this sweep are skipped, so ones that keep failing stay at the head
// of the list without hiding the rest.
func (c *offerCommandsImpl) ExpireDue(ctx context.Context) (int, error) {
	now := c.clock.Now()
	tried := make(map[uuid.UUID]struct{})
	expired, stuck := 0, 0

	for {
		// Offers that stayed ACTIVE are listed again ahead of the rest.
		limit := c.batchSize + stuck
		var ids []uuid.UUID
		err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
			var err error
			ids, err = tx.Offers().ListOverdueActive(ctx, now, limit)
			return err
		})
		if err != nil {
			return expired, err
		}

		fresh := 0
		for _, id := range ids {
			if _, ok := tried[id]; ok {
				continue
			}
			if ctx.Err() != nil {
				return expired, ctx.Err()
			}
			tried[id] = struct{}{}
			fresh++

			changed, err := c.expireOne(ctx, id)
			if err != nil {
				slog.Warn("failed to expire offer", "offer_id", id, "error", err.Error())
				stuck++
				continue
			}
			if changed {
				expired++
			} else {
				stuck++
			}
		}

		if fresh == 0 || len(ids) < limit {
			return expired, nil
		}
	}
}

func (c *offerCommandsImpl) expireOne(ctx context.Context, id uuid.UUID) (bool, error) {
	changed := false
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := c.clock.Now()

		o, err := tx.Offers().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		rs, err := tx.Reservations().ListByOffer(ctx, id)
		if err != nil {
			return err
		}

		out, err := allocation.Expire(o, rs, now)
		if err != nil {
			return err
		}
		changed = out.Changed
		if !out.Changed {
			return nil
		}

		if err := tx.Offers().UpdateStatus(ctx, id, offer.StatusActive, offer.StatusExpired, now); err != nil {
			return err
		}
		tx.Changes().Record(shared.OfferChanged(shared.OpUpdate, id, now))
		for _, r := range out.Expired {
			if err := tx.Reservations().Update(ctx, r); err != nil {
				return err
			}
			tx.Changes().Record(shared.ReservationChanged(shared.OpUpdate, r.ID(), id, now))
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		c.metrics.OfferTransitioned(offer.StatusExpired.String())
	}
	return changed, nil
}
