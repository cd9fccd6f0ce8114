package engine

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/types"
)

const (
	// MaxSignals bounds the signal history; the oldest signal is evicted first.
	MaxSignals = 50
	// ChartBars bounds the bar history kept for charts.
	ChartBars = 100
)

// state is the shared aggregate. Every access goes through Engine.mu.
type state struct {
	runID        string
	status       types.EngineStatus
	errorMessage string
	price        optional.Option[float64]
	lastBar      optional.Option[types.Bar]
	barCount     int
	bars         []types.Bar
	signals      []types.Signal
	params       types.RunParameters
}

func newState(params types.RunParameters) state {
	return state{
		runID:        "",
		status:       types.EngineStatusStopped,
		errorMessage: "",
		price:        optional.None[float64](),
		lastBar:      optional.None[types.Bar](),
		barCount:     0,
		bars:         make([]types.Bar, 0, ChartBars),
		signals:      make([]types.Signal, 0),
		params:       params,
	}
}

// reset clears the histories for a new run.
func (s *state) reset(runID string, params types.RunParameters) {
	*s = newState(params)
	s.runID = runID
	s.status = types.EngineStatusStarting
}

func (s *state) recordBar(bar types.Bar) {
	s.price = optional.Some(bar.Close)
	s.lastBar = optional.Some(bar)
	s.barCount++

	if len(s.bars) == ChartBars {
		copy(s.bars, s.bars[1:])
		s.bars = s.bars[:ChartBars-1]
	}

	s.bars = append(s.bars, bar)
}

func (s *state) recordSignal(sig types.Signal) {
	if len(s.signals) == MaxSignals {
		copy(s.signals, s.signals[1:])
		s.signals = s.signals[:MaxSignals-1]
	}

	s.signals = append(s.signals, sig)
}

func (s *state) fail(message string) {
	s.status = types.EngineStatusError
	s.errorMessage = message
}

// snapshot deep-copies every field.
func (s *state) snapshot() types.Snapshot {
	bars := make([]types.Bar, len(s.bars))
	copy(bars, s.bars)

	signals := make([]types.Signal, len(s.signals))
	for i, sig := range s.signals {
		signals[i] = sig.Clone()
	}

	params := s.params
	if s.params.MarketPrice.IsSome() {
		params.MarketPrice = optional.Some(s.params.MarketPrice.Unwrap())
	}

	lastBar := optional.None[types.Bar]()
	if s.lastBar.IsSome() {
		lastBar = optional.Some(s.lastBar.Unwrap())
	}

	price := optional.None[float64]()
	if s.price.IsSome() {
		price = optional.Some(s.price.Unwrap())
	}

	return types.Snapshot{
		RunID:        s.runID,
		Status:       s.status,
		ErrorMessage: s.errorMessage,
		Price:        price,
		LastBar:      lastBar,
		BarCount:     s.barCount,
		Bars:         bars,
		Signals:      signals,
		Params:       params,
	}
}
