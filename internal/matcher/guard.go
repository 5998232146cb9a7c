package matcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/standardbeagle/quickreply/internal/config"
	qrerrors "github.com/standardbeagle/quickreply/internal/errors"
	"github.com/standardbeagle/quickreply/internal/logging"
	"github.com/standardbeagle/quickreply/internal/resilience"
)

// Matcher is the work a Guard protects
type Matcher interface {
	Validate(input string) error
	Match(ctx context.Context, input string) (MatchResult, error)
	Fallback(input string) MatchResult
}

// Guard wraps a Matcher with a persistent circuit breaker and a per-call
// timeout race. Degraded calls get the matcher's fallback result.
type Guard struct {
	matcher Matcher
	breaker *resilience.Breaker
	logger  *zap.Logger

	mu   sync.RWMutex
	opts config.Resilience
}

// NewGuard creates a guard around m
func NewGuard(m Matcher, opts config.Resilience, logger *zap.Logger) *Guard {
	g := &Guard{
		matcher: m,
		breaker: resilience.NewBreaker(breakerOptions(opts)),
		logger:  logging.OrNop(logger).With(zap.String(logging.FieldComponent, "guard")),
		opts:    opts,
	}
	g.breaker.OnTransition(func(from, to resilience.Phase) {
		state := g.breaker.State()
		g.logger.Info("circuit breaker transition",
			zap.String(logging.FieldState, to.String()),
			zap.String("from", from.String()),
			zap.Int(logging.FieldFailures, state.Failures),
		)
	})
	return g
}

func breakerOptions(opts config.Resilience) resilience.Options {
	return resilience.Options{
		FailureThreshold: opts.FailureThreshold,
		ResetTimeout:     opts.ResetTimeout,
	}
}

// Configure updates the resilience settings; breaker state is kept
func (g *Guard) Configure(opts config.Resilience) {
	g.mu.Lock()
	g.opts = opts
	g.mu.Unlock()
	g.breaker.Configure(breakerOptions(opts))
}

// Options returns the active resilience settings
func (g *Guard) Options() config.Resilience {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.opts
}

// State returns the breaker state
func (g *Guard) State() resilience.State {
	return g.breaker.State()
}

// Breaker exposes the underlying breaker
func (g *Guard) Breaker() *resilience.Breaker {
	return g.breaker
}

// Match validates synchronously, then runs the matcher under the breaker
// and the call timeout. Timeouts and internal failures count against the
// breaker; an open breaker or a timeout yields the fallback result.
func (g *Guard) Match(ctx context.Context, input string) (MatchResult, error) {
	start := time.Now()

	if err := g.matcher.Validate(input); err != nil {
		result := invalidResult(err)
		result.finish(start)
		return result, err
	}

	opts := g.Options()
	if !opts.Enabled {
		return g.matcher.Match(ctx, input)
	}

	if err := g.breaker.Allow(); err != nil {
		g.logger.Debug("call rejected by open circuit", zap.String(logging.FieldInput, input))
		return g.degraded(input, FailureCircuitOpen, MessageCircuitOpen, start), nil
	}

	result, err := resilience.Race(ctx, opts.CallTimeout, func(ctx context.Context) (MatchResult, error) {
		return g.matcher.Match(ctx, input)
	})

	switch {
	case errors.Is(err, qrerrors.ErrTimeout):
		g.breaker.RecordFailure()
		g.logger.Warn("match timed out",
			zap.String(logging.FieldInput, input),
			zap.Int64(logging.FieldTimeoutMS, opts.CallTimeout.Milliseconds()),
		)
		return g.degraded(input, FailureTimeout, MessageTimeout, start), nil

	case err != nil && ctx.Err() != nil:
		g.breaker.Abandon()
		return result, err

	case err != nil:
		g.breaker.RecordFailure()
		g.logger.Error("match failed", zap.String(logging.FieldInput, input), zap.Error(err))
		failed := internalResult()
		failed.finish(start)
		return failed, nil

	case result.Failure == FailureInternal:
		g.breaker.RecordFailure()
		return result, nil
	}

	g.breaker.RecordSuccess()
	return result, nil
}

// MatchBatch matches inputs concurrently through the guard
func (g *Guard) MatchBatch(ctx context.Context, inputs []string) ([]MatchResult, error) {
	return MatchBatch(ctx, g, inputs)
}

func (g *Guard) degraded(input string, kind FailureKind, message string, start time.Time) MatchResult {
	result := g.matcher.Fallback(input)
	result.Failure = kind
	result.Error = message
	result.finish(start)
	return result
}
