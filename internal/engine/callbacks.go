package engine

import "github.com/rxtech-lab/argo-setups/internal/types"

// OnSignalCallback is called by the worker after a signal was stored.
// It runs outside the state lock and must not block for long.
type OnSignalCallback func(sig types.Signal)

// OnStatusUpdateCallback is called whenever the engine status changes.
type OnStatusUpdateCallback func(status types.EngineStatus, message string)

// OnBarCallback is called after every bar was recorded.
type OnBarCallback func(bar types.Bar)

// Callbacks holds the engine listeners. Nil fields are skipped.
type Callbacks struct {
	// OnSignal is called for every stored signal.
	OnSignal *OnSignalCallback

	// OnStatusUpdate is called on every status transition.
	OnStatusUpdate *OnStatusUpdateCallback

	// OnBar is called for every recorded bar.
	OnBar *OnBarCallback
}

func (c Callbacks) signal(sig types.Signal) {
	if c.OnSignal != nil {
		(*c.OnSignal)(sig)
	}
}

func (c Callbacks) status(status types.EngineStatus, message string) {
	if c.OnStatusUpdate != nil {
		(*c.OnStatusUpdate)(status, message)
	}
}

func (c Callbacks) bar(bar types.Bar) {
	if c.OnBar != nil {
		(*c.OnBar)(bar)
	}
}
