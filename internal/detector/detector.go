// Package detector implements the streaming setup detectors.
//
// Every detector consumes one bar at a time through OnBar and returns at most
// one advisory signal per call. Detectors keep their own bounded history and
// are owned by a single goroutine; they are not safe for concurrent use.
package detector

import (
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/internal/utils"
)

// Detector watches a bar stream for one setup.
type Detector interface {
	// Name returns the setup key of the detector
	Name() types.SetupName
	// OnBar consumes the next bar and returns a signal when the setup triggers
	OnBar(bar types.Bar) optional.Option[types.Signal]
}

// Option configures a detector built by New.
type Option func(*options)

type options struct {
	previousClose optional.Option[float64]
	forcedWindow  bool
	log           *logger.Logger
}

// WithPreviousClose supplies the previous session close used by the gap setup.
// Other setups ignore it.
func WithPreviousClose(price float64) Option {
	return func(o *options) {
		o.previousClose = optional.Some(price)
	}
}

// WithForcedWindow widens every time window to the whole day and switches the
// opening range to a count based range. Used for demos on synthetic data.
func WithForcedWindow() Option {
	return func(o *options) {
		o.forcedWindow = true
	}
}

// WithLogger sets the logger used for detection events.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func buildOptions(opts []Option) options {
	o := options{
		previousClose: optional.None[float64](),
		forcedWindow:  false,
		log:           nil,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.log == nil {
		o.log = logger.NewNop()
	}

	return o
}

// newSignal builds a signal from the triggering bar. Prices are rounded to 4 decimals.
func newSignal(setup types.SetupName, side types.Side, bar types.Bar, entry, stop, target float64, meta map[string]float64) types.Signal {
	return types.Signal{
		ID:        uuid.New().String(),
		Side:      side,
		Symbol:    bar.Symbol,
		Time:      bar.Time,
		Entry:     utils.Round(entry, 4),
		Stop:      utils.Round(stop, 4),
		Target:    utils.Round(target, 4),
		Setup:     setup,
		SetupName: setup.DisplayName(),
		Meta:      meta,
		Levels:    nil,
	}
}

func minLow(bars []types.Bar) float64 {
	low := bars[0].Low
	for _, b := range bars[1:] {
		if b.Low < low {
			low = b.Low
		}
	}

	return low
}

func maxHigh(bars []types.Bar) float64 {
	high := bars[0].High
	for _, b := range bars[1:] {
		if b.High > high {
			high = b.High
		}
	}

	return high
}
