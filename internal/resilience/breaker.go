package resilience

import (
	"sync"
	"time"

	qrerrors "github.com/standardbeagle/quickreply/internal/errors"
)

// Breaker defaults
const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 30 * time.Second
)

// Phase is the circuit breaker phase
type Phase int

const (
	Closed Phase = iota
	Open
	HalfOpen
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// State is a point-in-time view of the breaker
type State struct {
	Phase         Phase     `json:"-"`
	PhaseName     string    `json:"phase"`
	Failures      int       `json:"consecutiveFailures"`
	LastFailureAt time.Time `json:"lastFailureAt,omitempty"`
}

// Options tunes the breaker
type Options struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

func (o Options) withDefaults() Options {
	if o.FailureThreshold < 1 {
		o.FailureThreshold = DefaultFailureThreshold
	}
	if o.ResetTimeout <= 0 {
		o.ResetTimeout = DefaultResetTimeout
	}
	return o
}

// Breaker is a consecutive-failure circuit breaker. All transitions happen
// under one mutex, so it is safe to share across concurrent callers.
//
// Closed: calls pass; reaching FailureThreshold consecutive failures opens it.
// Open: calls are rejected until ResetTimeout has elapsed since the last
// failure, then exactly one trial call is admitted (HalfOpen).
// HalfOpen: the trial's success closes the breaker, its failure re-opens it.
type Breaker struct {
	mu sync.Mutex

	opts          Options
	phase         Phase
	failures      int
	lastFailureAt time.Time
	trialInFlight bool

	now          func() time.Time
	onTransition func(from, to Phase)
}

// NewBreaker creates a closed breaker
func NewBreaker(opts Options) *Breaker {
	return &Breaker{
		opts: opts.withDefaults(),
		now:  time.Now,
	}
}

// SetClock replaces the time source
func (b *Breaker) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// OnTransition registers a callback run after every phase change.
// It is called without the breaker lock held.
func (b *Breaker) OnTransition(fn func(from, to Phase)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTransition = fn
}

// Configure updates thresholds without resetting the current phase
func (b *Breaker) Configure(opts Options) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opts = opts.withDefaults()
}

// Options returns the active options
func (b *Breaker) Options() Options {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opts
}

// Allow reports whether a call may proceed. It returns ErrCircuitOpen when
// the call must be rejected. A nil return obliges the caller to report the
// outcome with RecordSuccess or RecordFailure.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	var from, to Phase
	changed := false

	switch b.phase {
	case Open:
		if b.now().Sub(b.lastFailureAt) <= b.opts.ResetTimeout {
			b.mu.Unlock()
			return qrerrors.ErrCircuitOpen
		}
		from, to, changed = b.phase, HalfOpen, true
		b.phase = HalfOpen
		b.trialInFlight = true
	case HalfOpen:
		if b.trialInFlight {
			b.mu.Unlock()
			return qrerrors.ErrCircuitOpen
		}
		b.trialInFlight = true
	}

	fn := b.onTransition
	b.mu.Unlock()

	if changed && fn != nil {
		fn(from, to)
	}
	return nil
}

// RecordSuccess reports a successful call
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	from := b.phase
	b.failures = 0
	b.trialInFlight = false
	if b.phase == HalfOpen {
		b.phase = Closed
	}
	to := b.phase
	fn := b.onTransition
	b.mu.Unlock()

	if from != to && fn != nil {
		fn(from, to)
	}
}

// RecordFailure reports a failed call
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	from := b.phase
	b.failures++
	b.lastFailureAt = b.now()

	switch b.phase {
	case HalfOpen:
		b.phase = Open
		b.trialInFlight = false
	case Closed:
		if b.failures >= b.opts.FailureThreshold {
			b.phase = Open
		}
	}
	to := b.phase
	fn := b.onTransition
	b.mu.Unlock()

	if from != to && fn != nil {
		fn(from, to)
	}
}

// Abandon releases an admitted call without counting it either way,
// for callers that gave up for reasons unrelated to the protected work.
func (b *Breaker) Abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialInFlight = false
}

// Reset forces the breaker closed and clears the failure count
func (b *Breaker) Reset() {
	b.mu.Lock()
	from := b.phase
	b.phase = Closed
	b.failures = 0
	b.lastFailureAt = time.Time{}
	b.trialInFlight = false
	fn := b.onTransition
	b.mu.Unlock()

	if from != Closed && fn != nil {
		fn(from, Closed)
	}
}

// State returns a snapshot of the breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return State{
		Phase:         b.phase,
		PhaseName:     b.phase.String(),
		Failures:      b.failures,
		LastFailureAt: b.lastFailureAt,
	}
}

// Execute runs fn under the breaker. A rejected call returns ErrCircuitOpen
// without invoking fn.
func (b *Breaker) Execute(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return nil
}
