package course

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	domcourse "github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/metrics"
)

// catalogLister is the read side wrapped by the breaker.
type catalogLister interface {
	List(ctx context.Context) ([]domcourse.Course, error)
}

// BreakerConfig configures the catalog circuit breaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // trial requests allowed while half-open
	Interval         time.Duration // closed-state count reset period
	Timeout          time.Duration // open -> half-open delay
	FailureThreshold uint32        // consecutive failures that open the circuit
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "catalog",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerReader fails catalog reads fast while the store is unhealthy.
type BreakerReader struct {
	inner  catalogLister
	cb     *gobreaker.CircuitBreaker[[]domcourse.Course]
	name   string
	logger *zap.Logger
}

// NewBreakerReader wraps inner with a circuit breaker.
func NewBreakerReader(inner catalogLister, cfg BreakerConfig, logger *zap.Logger) *BreakerReader {
	def := DefaultBreakerConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics.CatalogBreakerState.WithLabelValues(cfg.Name).Set(stateToFloat(gobreaker.StateClosed))

	r := &BreakerReader{inner: inner, name: cfg.Name, logger: logger}
	r.cb = gobreaker.NewCircuitBreaker[[]domcourse.Course](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A caller giving up is not a store failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Catalog circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.CatalogBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return r
}

// List reads the catalog through the breaker.
func (r *BreakerReader) List(ctx context.Context) ([]domcourse.Course, error) {
	courses, err := r.cb.Execute(func() ([]domcourse.Course, error) {
		return r.inner.List(ctx)
	})
	switch {
	case err == nil:
		metrics.CatalogBreakerRequestsTotal.WithLabelValues(r.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CatalogBreakerRequestsTotal.WithLabelValues(r.name, "rejected").Inc()
	default:
		metrics.CatalogBreakerRequestsTotal.WithLabelValues(r.name, "failure").Inc()
	}
	return courses, err
}

// State returns the current breaker state.
func (r *BreakerReader) State() gobreaker.State {
	return r.cb.State()
}

// ErrCatalogUnavailable is reported by HealthCheck while the circuit is open.
var ErrCatalogUnavailable = errors.New("catalog circuit open")

// HealthCheck reports whether catalog reads are currently being served.
func (r *BreakerReader) HealthCheck(_ context.Context) error {
	if r.cb.State() == gobreaker.StateOpen {
		return ErrCatalogUnavailable
	}
	return nil
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
