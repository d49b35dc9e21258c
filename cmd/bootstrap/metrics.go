package bootstrap

import (
	"groupbuy/internal/pkg/config"
	"groupbuy/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var MetricsModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
	),
)

// NewMetrics registers on the default registry so the /metrics route serves
// business counters next to the HTTP ones. A nil engine records nothing.
func NewMetrics(cfg config.Config) (*metrics.Engine, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}
	return metrics.NewEngine(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)
}
