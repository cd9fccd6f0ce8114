package detector

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/indicator"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/internal/utils"
	"github.com/rxtech-lab/argo-setups/internal/window"
	"go.uber.org/zap"
)

const gapFillHistorySize = 1000

type gapState int

const (
	// gapAwaitingOpen waits for the first in-window bar of the session.
	gapAwaitingOpen gapState = iota
	// gapNoGap means the session opened without a qualifying gap.
	gapNoGap
	// gapArmed watches for the first higher close.
	gapArmed
	// gapFired means the session already produced its signal.
	gapFired
)

// GapFill detects a gap down at the open followed by a first recovery bar.
// The state resets when a bar from a new calendar date arrives, so each session
// produces at most one signal. From the second session on, the gap is measured
// against the last close of the session before it.
type GapFill struct {
	params        GapFillParams
	hours         timeWindow
	previousClose optional.Option[float64]
	history       *window.Window
	log           *logger.Logger

	state     gapState
	session   string
	firstOpen float64
	lastClose float64
}

// NewGapFill creates a gap fill detector from typed parameters.
func NewGapFill(params GapFillParams, opts ...Option) (*GapFill, error) {
	return newGapFill(params, buildOptions(opts))
}

func newGapFill(params GapFillParams, o options) (*GapFill, error) {
	if err := decodeParams(types.SetupMorningGap, nil, &params); err != nil {
		return nil, err
	}

	hours, err := windowFor(types.SetupMorningGap, params.Start, params.End)
	if err != nil {
		return nil, err
	}

	if o.forcedWindow {
		hours = wholeDay()
	}

	return &GapFill{
		params:        params,
		hours:         hours,
		previousClose: o.previousClose,
		history:       window.New(gapFillHistorySize),
		log:           o.log.Named("morning_gap"),
		state:         gapAwaitingOpen,
		session:       "",
		firstOpen:     0,
		lastClose:     0,
	}, nil
}

// Name implements Detector.
func (g *GapFill) Name() types.SetupName {
	return types.SetupMorningGap
}

// SetPreviousClose sets the reference close the gap is measured against.
func (g *GapFill) SetPreviousClose(price float64) {
	g.previousClose = optional.Some(price)
}

// LoadHistory replaces the bar history, typically with the previous session,
// so the ATR stop buffer is available from the first bar.
func (g *GapFill) LoadHistory(bars []types.Bar) {
	g.history.Replace(bars)
}

// OnBar implements Detector.
func (g *GapFill) OnBar(bar types.Bar) optional.Option[types.Signal] {
	g.history.Add(bar)

	if date := bar.SessionDate(); date != g.session {
		g.rollover(date)
	}

	g.lastClose = bar.Close

	if g.previousClose.IsNone() {
		return optional.None[types.Signal]()
	}

	switch g.state {
	case gapAwaitingOpen:
		if g.hours.contains(bar) {
			g.recordOpen(bar)
		}

		return optional.None[types.Signal]()
	case gapArmed:
		if !g.hours.contains(bar) {
			return optional.None[types.Signal]()
		}

		prev, ok := g.history.At(1)
		if !ok || bar.Close <= prev.Close {
			return optional.None[types.Signal]()
		}

		return optional.Some(g.fire(bar))
	case gapNoGap, gapFired:
		return optional.None[types.Signal]()
	default:
		return optional.None[types.Signal]()
	}
}

// rollover starts a new session. Once a reference close is known, the close of
// the session that ended replaces it. Without one the detector stays silent.
func (g *GapFill) rollover(date string) {
	if g.session != "" && g.previousClose.IsSome() {
		g.SetPreviousClose(g.lastClose)
	}

	g.session = date
	g.state = gapAwaitingOpen
	g.firstOpen = 0
}

func (g *GapFill) recordOpen(bar types.Bar) {
	prevClose := g.previousClose.Unwrap()
	g.firstOpen = bar.Open
	gap := prevClose - bar.Open

	if gap >= g.params.GapMin && bar.Volume >= g.params.VolMin {
		g.state = gapArmed
		g.log.Debug("gap down detected",
			zap.String("session", g.session),
			zap.Float64("gap", gap),
			zap.Float64("first_open", bar.Open),
		)

		return
	}

	g.state = gapNoGap
}

func (g *GapFill) fire(bar types.Bar) types.Signal {
	prevClose := g.previousClose.Unwrap()
	entry := bar.Close
	meta := map[string]float64{
		"prev_close": prevClose,
		"first_open": g.firstOpen,
		"gap":        utils.Round(prevClose-g.firstOpen, 4),
	}

	buffer := g.params.SLBuffer

	atr, err := indicator.ATR(g.history.View(), indicator.DefaultATRPeriod, indicator.MethodWilder)
	switch {
	case err == nil:
		buffer = math.Max(g.params.ATRMinBuffer, utils.Round(g.params.ATRBufferK*atr, 6))
		meta["atr"] = atr
	case !indicator.IsUnavailable(err):
		g.log.Warn("atr failed, using fixed stop buffer", zap.Error(err))
	}

	stop := minLow(g.history.Tail(g.params.Lookback)) - buffer

	target := entry + (entry-stop)*g.params.TPRatio
	if toFill := prevClose - entry; toFill > 0 {
		target = entry + toFill
	}

	g.state = gapFired

	return newSignal(types.SetupMorningGap, types.SideLong, bar, entry, stop, target, meta)
}
