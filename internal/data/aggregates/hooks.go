package aggregates

import (
	"strings"
	"time"

	"github.com/yungbote/storefront-backend/internal/observability"
)

// Hooks receives one event per aggregate write. Names are entity-qualified
// operations such as "shoppingCart.PartialUpdate"; status is "success" or an
// error code.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type metricHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks reports writes to the prometheus aggregate series, or
// drops them when metrics are disabled.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricHooks{metrics: metrics}
}

func (h metricHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.metrics.ObserveAggregateOperation(strings.TrimSpace(name), strings.TrimSpace(status), dur)
}

func (h metricHooks) IncConflict(name string) {
	h.metrics.IncAggregateConflict(strings.TrimSpace(name))
}

func (h metricHooks) IncRetry(name string) {
	h.metrics.IncAggregateRetry(strings.TrimSpace(name))
}
