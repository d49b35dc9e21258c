package commands

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"groupbuy/internal/domain/offer"
	"groupbuy/internal/domain/points"
	"groupbuy/internal/pkg/errs"
	"groupbuy/internal/pkg/metrics"
	"groupbuy/internal/usecase/shared"

	"github.com/google/uuid"
)

// applyAwards credits each award in order and returns the ones that were not
// already on the ledger.
func applyAwards(ctx context.Context, tx shared.Tx, at time.Time, awards ...points.Award) ([]points.Award, error) {
	var credited []points.Award
	for _, a := range awards {
		_, applied, err := tx.Ledger().Apply(ctx, a, at)
		if err != nil {
			return nil, err
		}
		if applied {
			credited = append(credited, a)
		}
	}
	return credited, nil
}

func sumFor(awards []points.Award, userID uuid.UUID) int64 {
	var total int64
	for _, a := range awards {
		if a.UserID() == userID {
			total += a.Amount()
		}
	}
	return total
}

func recordAwards(m *metrics.Engine, awards []points.Award) {
	for _, a := range awards {
		m.PointsAwarded(a.Reason().String(), a.Amount())
	}
}

func enqueueOfferJob(ctx context.Context, tx shared.Tx, topic string, o *offer.Offer, now time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"offer_id":     o.ID(),
		"store_id":     o.StoreID(),
		"product_name": o.ProductName(),
		"status":       o.Status(),
		"type":         topic,
	})
	if err != nil {
		return err
	}
	return tx.Notifications().CreateJob(ctx, "push", topic, payload, now)
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(errs.KindOf(err)))
}
