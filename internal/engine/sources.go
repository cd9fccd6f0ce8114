package engine

import (
	"time"

	"github.com/rxtech-lab/argo-setups/internal/config"
	"github.com/rxtech-lab/argo-setups/internal/feed"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// SourceFactory builds the bar source of one run. It is called by the worker.
type SourceFactory func(cfg *config.AppConfig, params types.RunParameters, log *logger.Logger) (feed.Source, error)

// NewSourceFactory returns the default factory: a random walk in mock mode,
// a poller over the configured provider in live mode and a file replay in
// replay mode. apiKey authenticates the Polygon provider.
func NewSourceFactory(apiKey string) SourceFactory {
	return func(cfg *config.AppConfig, params types.RunParameters, log *logger.Logger) (feed.Source, error) {
		loc, err := cfg.LoadLocation()
		if err != nil {
			return nil, err
		}

		var src feed.Source

		switch params.FeedMode {
		case types.FeedModeMock:
			src = feed.NewRandomWalk(feed.RandomWalkConfig{
				Symbol:        params.Symbol,
				PreviousClose: params.PreviousClose,
				StartTime:     time.Now().In(loc).Truncate(time.Minute),
				Pace:          cfg.Feed.Pace,
				Seed:          cfg.Feed.Seed,
			})
		case types.FeedModeLive:
			fetcher, err := feed.NewFetcher(cfg.Feed.Provider, apiKey)
			if err != nil {
				return nil, err
			}

			poller, err := feed.NewPoller(fetcher, feed.PollerConfig{
				Symbol:       params.Symbol,
				PollInterval: cfg.Feed.PollInterval,
				Location:     loc,
				FetchRate:    cfg.Feed.FetchRate,
				Now:          nil,
			}, log)
			if err != nil {
				return nil, err
			}

			src = poller
		case types.FeedModeReplay:
			if cfg.Feed.ReplayFile == "" {
				return nil, errors.New(errors.ErrCodeMissingParameter, "replay mode needs feed.replay_file")
			}

			src = feed.NewReplay(feed.ReplayConfig{
				Path:     cfg.Feed.ReplayFile,
				Symbol:   "",
				Location: loc,
				Pace:     cfg.Feed.Pace,
			}, log)
		default:
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown feed mode %q", params.FeedMode)
		}

		return feed.Limit(src, cfg.Feed.Limit), nil
	}
}
