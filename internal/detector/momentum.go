package detector

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/internal/window"
)

const momentumHistorySize = 500

// Momentum fires once when n_confirm consecutive bars make higher highs and
// higher lows (or lower lows and lower highs) inside the window.
type Momentum struct {
	params  MomentumParams
	hours   timeWindow
	history *window.Window
	log     *logger.Logger

	fired bool
}

// NewMomentum creates a momentum detector from typed parameters.
func NewMomentum(params MomentumParams, opts ...Option) (*Momentum, error) {
	return newMomentum(params, buildOptions(opts))
}

func newMomentum(params MomentumParams, o options) (*Momentum, error) {
	if err := decodeParams(types.SetupMorningMomentum, nil, &params); err != nil {
		return nil, err
	}

	hours, err := windowFor(types.SetupMorningMomentum, params.Start, params.End)
	if err != nil {
		return nil, err
	}

	if o.forcedWindow {
		hours = wholeDay()
	}

	size := momentumHistorySize
	if need := max(params.NConfirm+1, params.SLLookback); need > size {
		size = need
	}

	return &Momentum{
		params:  params,
		hours:   hours,
		history: window.New(size),
		log:     o.log.Named("morning_momentum"),
		fired:   false,
	}, nil
}

// Name implements Detector.
func (m *Momentum) Name() types.SetupName {
	return types.SetupMorningMomentum
}

// OnBar implements Detector.
func (m *Momentum) OnBar(bar types.Bar) optional.Option[types.Signal] {
	m.history.Add(bar)

	if m.fired || !m.hours.contains(bar) || bar.Volume < m.params.VolMin {
		return optional.None[types.Signal]()
	}

	if m.history.Len() < m.params.NConfirm+1 {
		return optional.None[types.Signal]()
	}

	recent := m.history.Tail(m.params.NConfirm + 1)
	rising, falling := true, true

	for i := 1; i < len(recent); i++ {
		prev, cur := recent[i-1], recent[i]
		rising = rising && cur.High > prev.High && cur.Low > prev.Low
		falling = falling && cur.Low < prev.Low && cur.High < prev.High
	}

	if !rising && !falling {
		return optional.None[types.Signal]()
	}

	entry := bar.Close
	lookback := m.history.Tail(m.params.SLLookback)

	var sig types.Signal

	if rising {
		stop := minLow(lookback)
		target := entry + math.Abs(entry-stop)*m.params.TPRatio
		sig = newSignal(types.SetupMorningMomentum, types.SideLong, bar, entry, stop, target, nil)
	} else {
		stop := maxHigh(lookback)
		target := entry - math.Abs(stop-entry)*m.params.TPRatio
		sig = newSignal(types.SetupMorningMomentum, types.SideShort, bar, entry, stop, target, nil)
	}

	m.fired = true

	return optional.Some(sig)
}
