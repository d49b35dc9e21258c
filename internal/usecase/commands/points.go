package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"strings"
	"time"

	"groupbuy/internal/domain/points"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/pkg/clock"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
)

type AwardResult struct {
	Balance points.Balance
	Applied bool
	Amount  int64
}

type PointsCommands interface {
	// Award credits amount for reason. dedupeKey collapses repeats of the same
	// logical event; an empty key makes the award unique.
	Award(ctx context.Context, userID uuid.UUID, amount int64, reason points.Reason, dedupeKey string) (*AwardResult, error)
	Share(ctx context.Context, sess user.Session, ref string) (*AwardResult, error)
	DailyOpen(ctx context.Context, sess user.Session) (*AwardResult, error)
}

type pointsCommandsImpl struct {
	uow     shared.UnitOfWork
	clock   clock.Clock
	metrics *metrics.Engine
	dayLoc  *time.Location
}

func NewPointsCommands(uow shared.UnitOfWork, clk clock.Clock, m *metrics.Engine, dayLoc *time.Location) PointsCommands {
	if dayLoc == nil {
		dayLoc = time.UTC
	}
	return &pointsCommandsImpl{
		uow:     uow,
		clock:   clk,
		metrics: m,
		dayLoc:  dayLoc,
	}
}

func (c *pointsCommandsImpl) Award(ctx context.Context, userID uuid.UUID, amount int64, reason points.Reason, dedupeKey string) (*AwardResult, error) {
	if strings.TrimSpace(dedupeKey) == "" {
		dedupeKey = reason.String() + ":" + uuid.NewString()
	}
	a, err := points.NewAward(userID, amount, reason, dedupeKey)
	if err != nil {
		return nil, err
	}
	return c.apply(ctx, a)
}

func (c *pointsCommandsImpl) Share(ctx context.Context, sess user.Session, ref string) (*AwardResult, error) {
	if sess.IsZero() {
		return nil, user.ErrNoSession
	}
	if strings.TrimSpace(ref) == "" {
		ref = uuid.NewString()
	}
	return c.apply(ctx, points.ShareAward(sess.UserID, ref))
}

func (c *pointsCommandsImpl) DailyOpen(ctx context.Context, sess user.Session) (*AwardResult, error) {
	if sess.IsZero() {
		return nil, user.ErrNoSession
	}
	return c.apply(ctx, points.DailyOpenAward(sess.UserID, c.clock.Now(), c.dayLoc))
}

func (c *pointsCommandsImpl) apply(ctx context.Context, a points.Award) (*AwardResult, error) {
	var result *AwardResult
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		balance, applied, err := tx.Ledger().Apply(ctx, a, c.clock.Now())
		if err != nil {
			return err
		}
		result = &AwardResult{Balance: balance, Applied: applied}
		if applied {
			result.Amount = a.Amount()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Applied {
		c.metrics.PointsAwarded(a.Reason().String(), a.Amount())
	}
	return result, nil
}
