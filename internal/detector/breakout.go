package detector

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/internal/window"
	"go.uber.org/zap"
)

const breakoutHistorySize = 500

// Breakout fires on every bar that closes beyond the prior lookback range on
// above average volume. It never disarms.
type Breakout struct {
	params  BreakoutParams
	history *window.Window
	log     *logger.Logger
}

// NewBreakout creates a generic breakout detector from typed parameters.
func NewBreakout(params BreakoutParams, opts ...Option) (*Breakout, error) {
	return newBreakout(params, buildOptions(opts))
}

func newBreakout(params BreakoutParams, o options) (*Breakout, error) {
	if err := decodeParams(types.SetupBreakout, nil, &params); err != nil {
		return nil, err
	}

	log := o.log.Named("breakout")
	if params.VolMA > params.Lookback {
		log.Warn("volume average is longer than the lookback, no signal can fire",
			zap.Int("vol_ma", params.VolMA),
			zap.Int("lookback", params.Lookback),
		)
	}

	size := breakoutHistorySize
	if need := max(params.Lookback, params.VolMA) + 1; need > size {
		size = need
	}

	return &Breakout{
		params:  params,
		history: window.New(size),
		log:     log,
	}, nil
}

// Name implements Detector.
func (b *Breakout) Name() types.SetupName {
	return types.SetupBreakout
}

// OnBar implements Detector.
func (b *Breakout) OnBar(bar types.Bar) optional.Option[types.Signal] {
	b.history.Add(bar)

	if b.history.Len() < max(b.params.Lookback, b.params.VolMA)+1 {
		return optional.None[types.Signal]()
	}

	// the volume average is taken from the prior window only
	if b.params.VolMA > b.params.Lookback {
		return optional.None[types.Signal]()
	}

	bars := b.history.Tail(b.params.Lookback + 1)
	prior := bars[:b.params.Lookback]

	volumeSum := 0.0
	for _, p := range prior[len(prior)-b.params.VolMA:] {
		volumeSum += p.Volume
	}

	meanVolume := volumeSum / float64(b.params.VolMA)
	if bar.Volume <= meanVolume*b.params.VolMult {
		return optional.None[types.Signal]()
	}

	priorHigh := maxHigh(prior)
	priorLow := minLow(prior)
	entry := bar.Close

	switch {
	case entry > priorHigh:
		return optional.Some(newSignal(types.SetupBreakout, types.SideLong, bar,
			entry, priorLow, entry+(entry-priorLow)*b.params.TPRatio, nil))
	case entry < priorLow:
		return optional.Some(newSignal(types.SetupBreakout, types.SideShort, bar,
			entry, priorHigh, entry-(priorHigh-entry)*b.params.TPRatio, nil))
	default:
		return optional.None[types.Signal]()
	}
}
