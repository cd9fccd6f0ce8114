// Package feed provides the bar sources the engine consumes.
//
// A Source yields bars lazily, in time order, until it ends, fails or the
// context is cancelled. Sources are single use.
package feed

import (
	"context"
	"iter"

	"github.com/rxtech-lab/argo-setups/internal/types"
)

// Source produces bars for one run.
type Source interface {
	// Bars returns the bar sequence. A non-nil error is the last element yielded.
	Bars(ctx context.Context) iter.Seq2[types.Bar, error]
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) iter.Seq2[types.Bar, error]

// Bars implements Source.
func (f SourceFunc) Bars(ctx context.Context) iter.Seq2[types.Bar, error] {
	return f(ctx)
}

// FromSlice yields the given bars and ends. Cancellation stops it early.
func FromSlice(bars []types.Bar) Source {
	return SourceFunc(func(ctx context.Context) iter.Seq2[types.Bar, error] {
		return func(yield func(types.Bar, error) bool) {
			for _, bar := range bars {
				if ctx.Err() != nil {
					return
				}

				if !yield(bar, nil) {
					return
				}
			}
		}
	})
}

// Limit caps src at n bars. A non-positive n leaves src unlimited.
func Limit(src Source, n int) Source {
	if n <= 0 {
		return src
	}

	return SourceFunc(func(ctx context.Context) iter.Seq2[types.Bar, error] {
		return func(yield func(types.Bar, error) bool) {
			count := 0

			for bar, err := range src.Bars(ctx) {
				if !yield(bar, err) || err != nil {
					return
				}

				count++
				if count >= n {
					return
				}
			}
		}
	})
}
