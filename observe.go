package facetsearch

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/facetsearch/internal/metrics"
)

// Operation statuses.
const (
	statusOK      = "ok"
	statusInvalid = "invalid"
	statusClosed  = "closed"
	statusError   = "error"
)

// sdkMetrics holds prometheus metrics registered for the SDK.
type sdkMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	triggers   *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facetsearch",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "Total SDK operations by type and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "facetsearch",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "facetsearch",
			Subsystem: "sdk",
			Name:      "trigger_outcomes_total",
			Help:      "Search triggers by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.triggers); err != nil {
		return nil, err
	}
	if err := metrics.RegisterSearchMetricsOn(reg); err != nil {
		return nil, fmt.Errorf("facetsearch: %w", err)
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("facetsearch: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("facetsearch: register metric: %w", err)
	}
	return nil
}

// observer provides logging and metrics for SDK operations.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *sdkMetrics
	if reg != nil {
		var err error
		m, err = newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(op string, start time.Time, err error, attrs ...any) {
	if o == nil {
		return
	}
	dur := time.Since(start)
	status := statusOf(err)

	if o.metrics != nil {
		o.metrics.operations.WithLabelValues(op, status).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger != nil {
		args := append([]any{"op", op, "status", status, "duration", dur}, attrs...)
		switch status {
		case statusOK:
			o.logger.Debug("operation completed", args...)
		case statusInvalid:
			o.logger.Info("operation rejected", append(args, "error", err)...)
		default:
			o.logger.Warn("operation failed", append(args, "error", err)...)
		}
	}
}

// outcome records what a successful search trigger did.
func (o *observer) outcome(op string, out Outcome) {
	if o == nil {
		return
	}
	if o.metrics != nil {
		o.metrics.triggers.WithLabelValues(op, string(out)).Inc()
	}
	if o.logger != nil {
		o.logger.Debug("search triggered", "op", op, "outcome", string(out))
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, ErrInvalidArgument):
		return statusInvalid
	case errors.Is(err, ErrClosed):
		return statusClosed
	default:
		return statusError
	}
}
