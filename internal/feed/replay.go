package feed

import (
	"context"
	"iter"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/history"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
)

// ReplayConfig configures a file replay.
type ReplayConfig struct {
	Path     string
	Symbol   string
	Location *time.Location
	Pace     time.Duration
}

// Replay yields the bars of a history file in time order.
type Replay struct {
	config ReplayConfig
	log    *logger.Logger
}

// NewReplay creates a replay source. The file is read when Bars is iterated.
func NewReplay(config ReplayConfig, log *logger.Logger) *Replay {
	if log == nil {
		log = logger.NewNop()
	}

	return &Replay{config: config, log: log}
}

// Bars implements Source.
func (r *Replay) Bars(ctx context.Context) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		bars, err := history.ReadFile(ctx, r.config.Path, history.Query{
			Symbol:   r.config.Symbol,
			Location: r.config.Location,
		}, r.log)
		if err != nil {
			yield(types.Bar{}, err)

			return
		}

		for _, bar := range bars {
			if ctx.Err() != nil {
				return
			}

			if !yield(bar, nil) {
				return
			}

			if !sleep(ctx, r.config.Pace) {
				return
			}
		}
	}
}
