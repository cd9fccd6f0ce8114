package detector

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/internal/utils"
	"go.uber.org/zap"
)

type orbPhase int

const (
	orbBuilding orbPhase = iota
	orbWatching
	orbFired
)

// OpeningRangeBreak builds a high/low range from the opening bars and fires once
// on the first close outside it.
//
// In live mode the range is built from bars in [range_start, range_end) and a
// breakout must happen in [range_end, break_end]. In forced mode the first
// range_n_candles bars build the range and any later bar may break out.
type OpeningRangeBreak struct {
	params     OpeningRangeParams
	rangeHours timeWindow
	breakHours timeWindow
	forced     bool
	log        *logger.Logger

	phase     orbPhase
	hasRange  bool
	rangeHigh float64
	rangeLow  float64
	seen      int
}

// NewOpeningRangeBreak creates an opening range detector from typed parameters.
func NewOpeningRangeBreak(params OpeningRangeParams, opts ...Option) (*OpeningRangeBreak, error) {
	return newOpeningRangeBreak(params, buildOptions(opts))
}

func newOpeningRangeBreak(params OpeningRangeParams, o options) (*OpeningRangeBreak, error) {
	if err := decodeParams(types.SetupOpeningRangeBreak, nil, &params); err != nil {
		return nil, err
	}

	rangeHours, err := windowFor(types.SetupOpeningRangeBreak, params.RangeStart, params.RangeEnd)
	if err != nil {
		return nil, err
	}

	breakHours, err := windowFor(types.SetupOpeningRangeBreak, params.RangeEnd, params.BreakEnd)
	if err != nil {
		return nil, err
	}

	return &OpeningRangeBreak{
		params:     params,
		rangeHours: rangeHours,
		breakHours: breakHours,
		forced:     params.ForceWindow || o.forcedWindow,
		log:        o.log.Named("opening_range_break"),
		phase:      orbBuilding,
		hasRange:   false,
		rangeHigh:  0,
		rangeLow:   0,
		seen:       0,
	}, nil
}

// Name implements Detector.
func (r *OpeningRangeBreak) Name() types.SetupName {
	return types.SetupOpeningRangeBreak
}

// OnBar implements Detector.
func (r *OpeningRangeBreak) OnBar(bar types.Bar) optional.Option[types.Signal] {
	if r.phase == orbFired {
		return optional.None[types.Signal]()
	}

	if r.forced {
		if r.phase == orbBuilding {
			r.extend(bar)
			r.seen++

			if r.seen >= r.params.RangeNCandles {
				r.closeRange()
			}

			return optional.None[types.Signal]()
		}
	} else {
		if r.rangeHours.containsHalfOpen(bar) {
			r.extend(bar)

			return optional.None[types.Signal]()
		}

		if r.hasRange && r.phase == orbBuilding {
			r.closeRange()
		}

		if r.phase != orbWatching || !r.breakHours.contains(bar) {
			return optional.None[types.Signal]()
		}
	}

	return r.checkBreakout(bar)
}

func (r *OpeningRangeBreak) extend(bar types.Bar) {
	if !r.hasRange {
		r.rangeHigh, r.rangeLow = bar.High, bar.Low
		r.hasRange = true

		return
	}

	r.rangeHigh = math.Max(r.rangeHigh, bar.High)
	r.rangeLow = math.Min(r.rangeLow, bar.Low)
}

func (r *OpeningRangeBreak) closeRange() {
	r.phase = orbWatching
	r.log.Debug("opening range built",
		zap.Float64("range_high", r.rangeHigh),
		zap.Float64("range_low", r.rangeLow),
	)
}

func (r *OpeningRangeBreak) checkBreakout(bar types.Bar) optional.Option[types.Signal] {
	if bar.Volume < r.params.VolMin {
		return optional.None[types.Signal]()
	}

	size := r.rangeHigh - r.rangeLow
	if size <= 0 {
		return optional.None[types.Signal]()
	}

	meta := map[string]float64{
		"range_high": utils.Round(r.rangeHigh, 4),
		"range_low":  utils.Round(r.rangeLow, 4),
		"range_size": utils.Round(size, 4),
	}

	var sig types.Signal

	switch {
	case bar.Close > r.rangeHigh:
		sig = newSignal(types.SetupOpeningRangeBreak, types.SideLong, bar,
			bar.Close, r.rangeLow, bar.Close+size*r.params.TPRatio, meta)
	case bar.Close < r.rangeLow:
		sig = newSignal(types.SetupOpeningRangeBreak, types.SideShort, bar,
			bar.Close, r.rangeHigh, bar.Close-size*r.params.TPRatio, meta)
	default:
		return optional.None[types.Signal]()
	}

	r.phase = orbFired

	return optional.Some(sig)
}
