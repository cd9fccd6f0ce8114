package feed

import (
	"context"
	"iter"
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/internal/utils"
)

const (
	// DefaultPace is the delay between synthetic bars in demo mode.
	DefaultPace = 100 * time.Millisecond

	walkMaxDrift = 0.8
	walkMaxWick  = 0.5
	walkMinPrice = 0.1
	walkMinVol   = 100
	walkMaxVol   = 2000
)

// RandomWalkConfig configures a synthetic one-minute bar stream.
type RandomWalkConfig struct {
	Symbol string
	// PreviousClose anchors the first open one percent below it.
	PreviousClose float64
	// StartTime is the timestamp of the first bar. Zero means now, truncated to the minute.
	StartTime time.Time
	// Pace is slept after every bar. Zero streams as fast as the consumer reads.
	Pace time.Duration
	Seed int64
}

// RandomWalk generates bars with a bounded random drift between closes.
type RandomWalk struct {
	config RandomWalkConfig
}

// NewRandomWalk creates a synthetic source.
func NewRandomWalk(config RandomWalkConfig) *RandomWalk {
	if config.StartTime.IsZero() {
		config.StartTime = time.Now().Truncate(time.Minute)
	}

	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}

	return &RandomWalk{config: config}
}

// StartPrice is the open of the first bar.
func StartPrice(previousClose float64) float64 {
	return utils.Round(previousClose*0.99, 2)
}

// Bars implements Source. The stream is unbounded; wrap it with Limit to cap it.
func (w *RandomWalk) Bars(ctx context.Context) iter.Seq2[types.Bar, error] {
	return func(yield func(types.Bar, error) bool) {
		rng := rand.New(rand.NewSource(w.config.Seed))
		price := StartPrice(w.config.PreviousClose)
		ts := w.config.StartTime

		for {
			if ctx.Err() != nil {
				return
			}

			bar := w.next(rng, price, ts)
			if !yield(bar, nil) {
				return
			}

			price = bar.Close
			ts = ts.Add(time.Minute)

			if !sleep(ctx, w.config.Pace) {
				return
			}
		}
	}
}

func (w *RandomWalk) next(rng *rand.Rand, open float64, ts time.Time) types.Bar {
	drift := (rng.Float64()*2 - 1) * walkMaxDrift
	closePrice := math.Max(walkMinPrice, open+drift)
	high := math.Max(open, closePrice) + rng.Float64()*walkMaxWick
	low := math.Min(open, closePrice) - rng.Float64()*walkMaxWick
	volume := walkMinVol + rng.Intn(walkMaxVol-walkMinVol+1)

	return types.Bar{
		Symbol: w.config.Symbol,
		Time:   ts,
		Open:   utils.Round(open, 4),
		High:   utils.Round(high, 4),
		Low:    utils.Round(low, 4),
		Close:  utils.Round(closePrice, 4),
		Volume: float64(volume),
	}
}

// sleep waits for d or until ctx is done. It reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
