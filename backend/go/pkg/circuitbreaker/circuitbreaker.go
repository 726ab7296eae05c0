package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the state of the circuit breaker.
type State int

const (
	// Closed is the initial state where requests are allowed.
	Closed State = iota
	// Open state is when the circuit has tripped and requests are blocked.
	Open
	// HalfOpen is a state where trial requests are allowed to test the backend's recovery.
	HalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned when the circuit breaker is in the Open state.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitBreaker guards calls to a single backend.
type CircuitBreaker interface {
	// Execute runs req unless the circuit is open.
	Execute(req func() error) error
	// State returns the current state of the circuit breaker.
	State() State
	// Name identifies the guarded backend.
	Name() string
}

// Option configures a breaker.
type Option func(*breaker)

// WithStateChange registers a callback invoked (outside the lock) on every transition.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(b *breaker) { b.onStateChange = fn }
}

// WithFailurePredicate decides which errors count against the backend.
// By default every non-nil error does.
func WithFailurePredicate(fn func(error) bool) Option {
	return func(b *breaker) { b.isFailure = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *breaker) { b.now = now }
}

type breaker struct {
	name                 string
	failureThreshold     uint32        // Number of consecutive failures to trip the circuit.
	successThreshold     uint32        // Number of successes in HalfOpen state to close the circuit.
	timeout              time.Duration // Duration to wait in Open state before transitioning to HalfOpen.
	consecutiveSuccesses uint32
	consecutiveFailures  uint32
	openedAt             time.Time
	state                State
	onStateChange        func(name string, from, to State)
	isFailure            func(error) bool
	now                  func() time.Time
	mutex                sync.Mutex
}

// New creates a breaker for the named backend.
// failureThreshold: consecutive failures required to open the circuit.
// successThreshold: consecutive half-open successes required to close it again.
// timeout: how long the circuit stays open before allowing a trial call.
func New(name string, failureThreshold, successThreshold uint32, timeout time.Duration, opts ...Option) CircuitBreaker {
	if failureThreshold == 0 {
		failureThreshold = 1
	}
	if successThreshold == 0 {
		successThreshold = 1
	}
	b := &breaker{
		name:             name,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		timeout:          timeout,
		state:            Closed,
		isFailure:        func(err error) bool { return err != nil },
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *breaker) Name() string { return b.name }

// State returns the current state, accounting for an expired open period.
func (b *breaker) State() State {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) > b.timeout {
		return HalfOpen
	}
	return b.state
}

// Execute wraps the execution of req with the circuit breaker logic.
func (b *breaker) Execute(req func() error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := req()
	b.after(err)
	return err
}

func (b *breaker) before() error {
	b.mutex.Lock()
	from := b.state
	if b.state == Open && b.now().Sub(b.openedAt) > b.timeout {
		b.state = HalfOpen
		b.consecutiveSuccesses = 0
	}
	to := b.state
	b.mutex.Unlock()

	b.notify(from, to)
	if to == Open {
		return ErrCircuitOpen
	}
	return nil
}

func (b *breaker) after(err error) {
	b.mutex.Lock()
	from := b.state
	switch {
	case err == nil:
		b.onSuccess()
	case b.isFailure(err):
		b.onFailure()
	default:
		// Neither outcome: the call proved nothing about the backend.
	}
	to := b.state
	b.mutex.Unlock()

	b.notify(from, to)
}

func (b *breaker) notify(from, to State) {
	if from != to && b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}

// onSuccess assumes the lock is held.
func (b *breaker) onSuccess() {
	switch b.state {
	case HalfOpen:
		b.consecutiveSuccesses++
		if b.consecutiveSuccesses >= b.successThreshold {
			b.reset()
		}
	case Closed:
		b.consecutiveFailures = 0
	}
}

// onFailure assumes the lock is held.
func (b *breaker) onFailure() {
	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.failureThreshold {
			b.trip()
		}
	}
}

func (b *breaker) trip() {
	b.state = Open
	b.openedAt = b.now()
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
}

func (b *breaker) reset() {
	b.state = Closed
	b.consecutiveFailures = 0
	b.consecutiveSuccesses = 0
}

// Noop returns a breaker that never opens, used when circuit breaking is disabled.
func Noop(name string) CircuitBreaker {
	return noop(name)
}

type noop string

func (n noop) Execute(req func() error) error { return req() }
func (n noop) State() State                   { return Closed }
func (n noop) Name() string                   { return string(n) }
