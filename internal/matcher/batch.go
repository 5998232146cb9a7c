package matcher

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchMatcher is anything that can match a single input
type BatchMatcher interface {
	Match(ctx context.Context, input string) (MatchResult, error)
}

// MatchBatch matches every input concurrently, bounded by GOMAXPROCS.
// Results line up with inputs. Per-input validation failures are reported
// on the result; only cancellation of ctx fails the batch.
func MatchBatch(ctx context.Context, m BatchMatcher, inputs []string) ([]MatchResult, error) {
	results := make([]MatchResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, input := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := m.Match(gctx, input)
			results[i] = res
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// MatchBatch matches inputs with this engine
func (e *Engine) MatchBatch(ctx context.Context, inputs []string) ([]MatchResult, error) {
	return MatchBatch(ctx, e, inputs)
}
