package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Engine holds the business counters. A nil *Engine is valid and records nothing.
type Engine struct {
	reservations     *prometheus.CounterVec
	validations      *prometheus.CounterVec
	pointsAwarded    *prometheus.CounterVec
	offerTransitions *prometheus.CounterVec
	changesDropped   prometheus.Counter
}

func NewEngine(namespace string, reg prometheus.Registerer) (*Engine, error) {
	e := &Engine{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reserve and cancel calls by outcome.",
		}, []string{"op", "outcome"}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Pickup validations by outcome.",
		}, []string{"outcome"}),
		pointsAwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Loyalty points credited by reason.",
		}, []string{"reason"}),
		offerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offer_transitions_total",
			Help:      "Offer status transitions by target status.",
		}, []string{"status"}),
		changesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_events_dropped_total",
			Help:      "Change events that could not be published or delivered.",
		}),
	}

	for _, c := range []prometheus.Collector{e.reservations, e.validations, e.pointsAwarded, e.offerTransitions, e.changesDropped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) Reservation(op, outcome string) {
	if e == nil {
		return
	}
	e.reservations.WithLabelValues(op, outcome).Inc()
}

func (e *Engine) Validation(outcome string) {
	if e == nil {
		return
	}
	e.validations.WithLabelValues(outcome).Inc()
}

func (e *Engine) PointsAwarded(reason string, amount int64) {
	if e == nil || amount <= 0 {
		return
	}
	e.pointsAwarded.WithLabelValues(reason).Add(float64(amount))
}

func (e *Engine) OfferTransitioned(status string) {
	if e == nil {
		return
	}
	e.offerTransitions.WithLabelValues(status).Inc()
}

func (e *Engine) ChangeDropped() {
	if e == nil {
		return
	}
	e.changesDropped.Inc()
}
