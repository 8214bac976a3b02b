package httpclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned when the breaker rejects a call and no fallback
// is configured.
var ErrCircuitOpen = errors.New("circuit breaker is open")

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state per upstream (0=closed, 1=half-open, 2=open).",
	},
	[]string{"name"},
)

// CircuitBreakerConfig tunes when the breaker opens and recovers.
type CircuitBreakerConfig struct {
	Name string
	// MaxFailures is the number of consecutive failures before opening.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenMaxCalls limits probe traffic while half-open.
	HalfOpenMaxCalls uint32
}

// FallbackFunc produces a substitute response when the breaker is open.
type FallbackFunc func(ctx context.Context) (*http.Response, error)

// BreakerClient wraps a Client with a circuit breaker. When the breaker is
// open, calls fail fast with ErrCircuitOpen or the configured fallback.
type BreakerClient struct {
	client   *Client
	breaker  *gobreaker.CircuitBreaker[*http.Response]
	fallback FallbackFunc
}

// NewBreakerClient creates a circuit-broken client.
func NewBreakerClient(client *Client, cfg CircuitBreakerConfig, fallback FallbackFunc) *BreakerClient {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxCalls == 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenMaxCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(stateValue(gobreaker.StateClosed))

	return &BreakerClient{
		client:   client,
		breaker:  gobreaker.NewCircuitBreaker[*http.Response](settings),
		fallback: fallback,
	}
}

// Do executes the request through the breaker.
func (b *BreakerClient) Do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	resp, err := b.breaker.Execute(func() (*http.Response, error) {
		return b.client.Do(ctx, method, url, body, headers)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			if b.fallback != nil {
				return b.fallback(ctx)
			}
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	return resp, nil
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.breaker.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
