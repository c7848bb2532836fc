package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/product-catalog/pkg/logger"
)

// ErrCircuitOpen is returned while a breaker is rejecting deliveries
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState represents the state of a circuit breaker
type CircuitState string

const (
	StateClosed   CircuitState = "closed"    // Normal operation
	StateOpen     CircuitState = "open"      // Rejecting deliveries
	StateHalfOpen CircuitState = "half-open" // Probing for recovery
)

// halfOpenSuccesses is how many trial calls must succeed before the circuit closes
const halfOpenSuccesses = 3

var circuitOpen = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "catalog_subscriber_circuit_open",
		Help: "1 while the subscriber's circuit breaker is open",
	},
	[]string{"subscriber"},
)

func init() {
	prometheus.MustRegister(circuitOpen)
}

// Breaker wraps a Subscriber so a failing channel is skipped instead of slowing every
// command that publishes through the bus.
type Breaker struct {
	next        Subscriber
	maxFailures int
	cooldown    time.Duration

	mu              sync.Mutex
	state           CircuitState
	failures        int
	successCount    int
	lastStateChange time.Time
	now             func() time.Time
}

// NewBreaker opens after maxFailures consecutive failures and lets trial calls through again after cooldown
func NewBreaker(next Subscriber, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 5
	}
	return &Breaker{
		next:            next,
		maxFailures:     maxFailures,
		cooldown:        cooldown,
		state:           StateClosed,
		lastStateChange: time.Now(),
		now:             time.Now,
	}
}

var _ Subscriber = (*Breaker)(nil)

func (b *Breaker) Name() string { return b.next.Name() }

// Notify forwards n unless the circuit is open
func (b *Breaker) Notify(ctx context.Context, n Notification) error {
	if !b.allow(ctx) {
		return ErrCircuitOpen
	}

	err := b.next.Notify(ctx, n)
	b.record(ctx, err)
	return err
}

// State returns the current state
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.lastStateChange) > b.cooldown {
		b.transition(ctx, StateHalfOpen)
		b.successCount = 0
	}
	return b.state != StateOpen
}

func (b *Breaker) record(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.transition(ctx, StateOpen)
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= halfOpenSuccesses {
			b.failures = 0
			b.successCount = 0
			b.transition(ctx, StateClosed)
		}
	case StateClosed:
		b.failures = 0
	}
}

// transition must be called with mu held
func (b *Breaker) transition(ctx context.Context, to CircuitState) {
	if b.state == to {
		return
	}
	b.state = to
	b.lastStateChange = b.now()

	open := 0.0
	if to == StateOpen {
		open = 1
	}
	circuitOpen.WithLabelValues(b.next.Name()).Set(open)

	logger.Warn(ctx).
		Str("subscriber", b.next.Name()).
		Str("state", string(to)).
		Int("failures", b.failures).
		Msg("Circuit breaker state changed")
}
