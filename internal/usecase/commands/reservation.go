package commands

//go:generate mockgen -source=$GOFILE -destination=../../../tests/mock/commands/$GOFILE -package=commandsmock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"groupbuy/internal/domain/allocation"
	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/points"
	"groupbuy/internal/domain/reservation"
	"groupbuy/internal/domain/user"
	"groupbuy/internal/pkg/clock"
	"groupbuy/internal/pkg/errs"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrIdempotencyKeyReused  = errs.Define(errs.KindStateConflict, "idempotency key was used with a different request")
	ErrIdempotencyInProgress = errs.Define(errs.KindStateConflict, "request with this idempotency key is still in progress")
)

const reserveEndpoint = "POST /offers/:id/reservations"

type ReserveParams struct {
	OfferID uuid.UUID
	Units   int
	// IdempotencyKey is optional; uuid.Nil disables replay protection.
	IdempotencyKey uuid.UUID
}

type ReserveResult struct {
	Offer         *offer.Offer
	Reservation   *reservation.Reservation
	Created       bool
	ReachedTarget bool
	IsReplayed    bool
	PointsAwarded int64
}

type CancelResult struct {
	Offer       *offer.Offer
	Reservation *reservation.Reservation
}

type ReservationCommands interface {
	Reserve(ctx context.Context, sess user.Session, p ReserveParams) (*ReserveResult, error)
	Cancel(ctx context.Context, sess user.Session, offerID uuid.UUID) (*CancelResult, error)
}

type reservationCommandsImpl struct {
	uow            shared.UnitOfWork
	clock          clock.Clock
	metrics        *metrics.Engine
	idempotencyTTL time.Duration
}

func NewReservationCommands(uow shared.UnitOfWork, clk clock.Clock, m *metrics.Engine, idempotencyTTL time.Duration) ReservationCommands {
	if idempotencyTTL <= 0 {
		idempotencyTTL = 24 * time.Hour
	}
	return &reservationCommandsImpl{
		uow:            uow,
		clock:          clk,
		metrics:        m,
		idempotencyTTL: idempotencyTTL,
	}
}

func (c *reservationCommandsImpl) Reserve(ctx context.Context, sess user.Session, p ReserveParams) (*ReserveResult, error) {
	if err := sess.RequireShopper(); err != nil {
		return nil, err
	}
	if p.Units < 1 {
		return nil, allocation.ErrInvalidQuantity
	}

	requestHash := calculateRequestHash(p.OfferID, p.Units)
	var (
		result   *ReserveResult
		credited []points.Award
		outcome  allocation.Outcome
	)

	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		result, credited = nil, nil
		now := c.clock.Now()

		if p.IdempotencyKey != uuid.Nil {
			replayed, err := c.claimIdempotencyKey(ctx, tx, sess.UserID, p.IdempotencyKey, requestHash, now)
			if err != nil || replayed != nil {
				result = replayed
				return err
			}
		}

		o, err := tx.Offers().GetForUpdate(ctx, p.OfferID)
		if err != nil {
			return err
		}

		existing, err := tx.Reservations().FindLatest(ctx, o.ID(), sess.UserID)
		if err != nil && !errors.Is(err, reservation.ErrNotFound) {
			return err
		}

		balance, err := tx.Ledger().Balance(ctx, sess.UserID)
		if err != nil {
			return err
		}

		outcome, err = allocation.Reserve(o, existing, allocation.Request{
			UserID:     sess.UserID,
			Units:      p.Units,
			UserPoints: balance.Points,
			Now:        now,
		})
		if err != nil {
			return err
		}

		if err := tx.Offers().UpdateCounters(ctx, o.ID(), shared.CounterDelta{Reserved: p.Units}, offer.StatusActive, now); err != nil {
			return err
		}

		res := outcome.Reservation
		op := shared.OpUpdate
		if outcome.Created {
			op = shared.OpInsert
			err = tx.Reservations().Create(ctx, res)
		} else {
			err = tx.Reservations().Update(ctx, res)
		}
		if err != nil {
			return err
		}
		tx.Changes().Record(
			shared.ReservationChanged(op, res.ID(), o.ID(), now),
			shared.OfferChanged(shared.OpUpdate, o.ID(), now),
		)

		if outcome.Created {
			awarded, err := applyAwards(ctx, tx, now, points.JoinAward(sess.UserID, o.ID()))
			if err != nil {
				return err
			}
			credited = append(credited, awarded...)
		}

		if outcome.ReachedTarget {
			awarded, err := c.completeTarget(ctx, tx, outcome.Offer, now)
			if err != nil {
				return err
			}
			credited = append(credited, awarded...)
		}

		if p.IdempotencyKey != uuid.Nil {
			if err := tx.Idempotency().MarkCompleted(ctx, p.IdempotencyKey, sess.UserID, calculateIDHash(res.ID()), res.ID()); err != nil {
				return err
			}
		}

		result = &ReserveResult{
			Offer:         outcome.Offer,
			Reservation:   res,
			Created:       outcome.Created,
			ReachedTarget: outcome.ReachedTarget,
			PointsAwarded: sumFor(credited, sess.UserID),
		}
		return nil
	})
	if err != nil {
		c.metrics.Reservation("reserve", outcomeLabel(err))
		return nil, err
	}

	if !result.IsReplayed {
		c.metrics.Reservation("reserve", "ok")
		recordAwards(c.metrics, credited)
		if result.ReachedTarget {
			c.metrics.OfferTransitioned(offer.StatusPickup.String())
			slog.Info("offer reached target",
				"offer_id", result.Offer.ID(),
				"target_units", result.Offer.TargetUnits())
		}
	}
	return result, nil
}

// completeTarget flips the offer to PICKUP and rewards every live participant once.
func (c *reservationCommandsImpl) completeTarget(ctx context.Context, tx shared.Tx, o *offer.Offer, now time.Time) ([]points.Award, error) {
	if err := tx.Offers().UpdateStatus(ctx, o.ID(), offer.StatusActive, offer.StatusPickup, now); err != nil {
		return nil, err
	}

	participants, err := tx.Reservations().ListByOffer(ctx, o.ID())
	if err != nil {
		return nil, err
	}
	// Stable lock order on user rows across concurrent completions.
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].UserID().String() < participants[j].UserID().String()
	})

	var awards []points.Award
	for _, r := range participants {
		if r.IsLive() {
			awards = append(awards, points.TargetReachedAward(r.UserID(), o.ID()))
		}
	}
	credited, err := applyAwards(ctx, tx, now, awards...)
	if err != nil {
		return nil, err
	}

	if err := enqueueOfferJob(ctx, tx, "offer_pickup_ready", o, now); err != nil {
		return nil, err
	}
	return credited, nil
}

func (c *reservationCommandsImpl) claimIdempotencyKey(
	ctx context.Context,
	tx shared.Tx,
	userID, key uuid.UUID,
	requestHash string,
	now time.Time,
) (*ReserveResult, error) {
	claimed, err := tx.Idempotency().TryInsert(ctx, key, userID, reserveEndpoint, requestHash, now, now.Add(c.idempotencyTTL))
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, nil
	}

	existing, err := tx.Idempotency().Get(ctx, key, userID)
	if err != nil {
		return nil, err
	}
	if existing.RequestHash != requestHash {
		return nil, ErrIdempotencyKeyReused
	}

	switch existing.Status {
	case shared.IdempotencyStatusCompleted:
		if existing.ResultReservationID == nil {
			return nil, errs.New("completed request missing result reservation ID")
		}
		res, err := tx.Reservations().Get(ctx, *existing.ResultReservationID)
		if err != nil {
			return nil, err
		}
		o, err := tx.Offers().Get(ctx, res.OfferID())
		if err != nil {
			return nil, err
		}
		return &ReserveResult{Offer: o, Reservation: res, IsReplayed: true}, nil

	case shared.IdempotencyStatusProcessing:
		return nil, ErrIdempotencyInProgress

	default:
		return nil, errs.New("invalid idempotency key status")
	}
}

func (c *reservationCommandsImpl) Cancel(ctx context.Context, sess user.Session, offerID uuid.UUID) (*CancelResult, error) {
	if err := sess.RequireShopper(); err != nil {
		return nil, err
	}

	var result *CancelResult
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		now := c.clock.Now()

		o, err := tx.Offers().GetForUpdate(ctx, offerID)
		if err != nil {
			return err
		}
		existing, err := tx.Reservations().FindLatest(ctx, o.ID(), sess.UserID)
		if err != nil {
			return err
		}

		out, err := allocation.Cancel(o, existing, now)
		if err != nil {
			return err
		}

		delta := shared.CounterDelta{Reserved: -existing.Units()}
		if err := tx.Offers().UpdateCounters(ctx, o.ID(), delta, offer.StatusActive, now); err != nil {
			return err
		}
		if err := tx.Reservations().Update(ctx, out.Reservation); err != nil {
			return err
		}
		tx.Changes().Record(
			shared.ReservationChanged(shared.OpUpdate, out.Reservation.ID(), o.ID(), now),
			shared.OfferChanged(shared.OpUpdate, o.ID(), now),
		)

		result = &CancelResult{Offer: out.Offer, Reservation: out.Reservation}
		return nil
	})
	c.metrics.Reservation("cancel", outcomeLabel(err))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func calculateRequestHash(offerID uuid.UUID, units int) string {
	data, _ := json.Marshal(struct {
		OfferID uuid.UUID `json:"offer_id"`
		Units   int       `json:"units"`
	}{offerID, units})
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func calculateIDHash(id uuid.UUID) string {
	hash := sha256.Sum256([]byte(id.String()))
	return hex.EncodeToString(hash[:])
}
