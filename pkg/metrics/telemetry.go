// Package metrics exposes portal telemetry events as prometheus metrics.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	portal "github.com/goliatone/go-vendor-portal/components/portal"
)

const namespace = "vendor_portal"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Telemetry implements portal.Telemetry on top of prometheus collectors.
type Telemetry struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	exported *prometheus.CounterVec
	logger   *slog.Logger
}

var _ portal.Telemetry = (*Telemetry)(nil)

// New registers the portal collectors on reg. A nil registerer uses a fresh
// registry.
func New(reg prometheus.Registerer, logger *slog.Logger) (*Telemetry, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Telemetry{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Portal events by name, section and outcome.",
			},
			[]string{"event", "section", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Backend fetch latency per event and section.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"event", "section"},
		),
		exported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exported_rows_total",
				Help:      "Rows written to XLSX exports per section.",
			},
			[]string{"section"},
		),
		logger: logger,
	}
	for _, c := range []prometheus.Collector{t.events, t.duration, t.exported} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	return t, nil
}

// Record updates the collectors for one portal event.
func (t *Telemetry) Record(ctx context.Context, event string, payload map[string]any) {
	section := label(payload, "section")
	t.events.WithLabelValues(event, section, outcome(payload)).Inc()
	if ms, ok := payload["duration_ms"].(int64); ok {
		t.duration.WithLabelValues(event, section).Observe((time.Duration(ms) * time.Millisecond).Seconds())
	}
	if event == portal.EventTableExport {
		if rows, ok := payload["rows"].(int); ok {
			t.exported.WithLabelValues(section).Add(float64(rows))
		}
	}
	t.logger.DebugContext(ctx, "telemetry", "event", event, "section", section)
}

// Handler serves the collectors registered on gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func label(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func outcome(payload map[string]any) string {
	if _, failed := payload["error"]; failed {
		return OutcomeError
	}
	if ok, present := payload["success"].(bool); present && !ok {
		return OutcomeError
	}
	if result, ok := payload["result"].(string); ok && result != "" {
		return result
	}
	return OutcomeOK
}
