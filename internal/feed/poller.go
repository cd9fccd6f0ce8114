package feed

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

//go:generate mockgen -destination=../../mocks/mock_fetcher.go -package=mocks github.com/rxtech-lab/argo-setups/internal/feed Fetcher

const (
	DefaultPollInterval = 60 * time.Second
	DefaultLocation     = "Europe/Amsterdam"
	// DefaultFetchRate bounds fetch calls per second regardless of the poll interval.
	DefaultFetchRate = 1.0
)

// Fetcher returns the one-minute bars of the session containing day.
// Implementations may return bars in any order and in any location.
type Fetcher interface {
	FetchSession(ctx context.Context, symbol string, day time.Time) ([]types.Bar, error)
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Symbol       string
	PollInterval time.Duration
	Location     *time.Location
	// FetchRate is the maximum number of fetches per second.
	FetchRate float64
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Poller replays today's session from a Fetcher and then polls for new bars.
// Only bars strictly newer than the last yielded bar are emitted.
type Poller struct {
	fetcher Fetcher
	config  PollerConfig
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewPoller creates a live source. Missing config values take the defaults.
func NewPoller(fetcher Fetcher, config PollerConfig, log *logger.Logger) (*Poller, error) {
	if fetcher == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "poller needs a fetcher")
	}

	if config.Symbol == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "poller needs a symbol")
	}

	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}

	if config.Location == nil {
		loc, err := time.LoadLocation(DefaultLocation)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load location %s", DefaultLocation)
		}

		config.Location = loc
	}

	if config.FetchRate <= 0 {
		config.FetchRate = DefaultFetchRate
	}

	if config.Now == nil {
		config.Now = time.Now
	}

	if log == nil {
		log = logger.NewNop()
	}

	return &Poller{
		fetcher: fetcher,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.FetchRate), 1),
		log:     log.Named("poller"),
	}, nil
}

// Bars implements Source. The stream ends only on cancellation or a fetch error.
func (p *Poller) Bars(ctx context.Context) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		var last time.Time

		for first := true; ; first = false {
			if !first && !sleep(ctx, p.config.PollInterval) {
				return
			}

			if err := p.limiter.Wait(ctx); err != nil {
				return
			}

			bars, err := p.fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}

				yield(types.Bar{}, err)

				return
			}

			fresh := 0

			for _, bar := range bars {
				if !last.IsZero() && !bar.Time.After(last) {
					continue
				}

				last = bar.Time
				fresh++

				if !yield(bar, nil) {
					return
				}
			}

			p.log.Debug("Polled session",
				zap.String("symbol", p.config.Symbol),
				zap.Int("fetched", len(bars)),
				zap.Int("new", fresh),
			)
		}
	}
}

// fetch returns the session bars in the configured location, sorted by time.
func (p *Poller) fetch(ctx context.Context) ([]types.Bar, error) {
	day := p.config.Now().In(p.config.Location)

	bars, err := p.fetcher.FetchSession(ctx, p.config.Symbol, day)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s", p.config.Symbol)
	}

	out := make([]types.Bar, 0, len(bars))
	for _, bar := range bars {
		bar.Time = bar.Time.In(p.config.Location)
		if bar.Symbol == "" {
			bar.Symbol = p.config.Symbol
		}

		out = append(out, bar)
	}

	slices.SortStableFunc(out, func(a, b types.Bar) int {
		return a.Time.Compare(b.Time)
	})

	return out, nil
}
