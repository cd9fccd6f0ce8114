package types

import (
	"github.com/moznion/go-optional"
)

// EngineStatus represents the lifecycle state of the monitoring engine.
type EngineStatus string

const (
	// EngineStatusStopped indicates no worker is running.
	EngineStatusStopped EngineStatus = "stopped"

	// EngineStatusStarting indicates a worker was spawned but has not built its source yet.
	EngineStatusStarting EngineStatus = "starting"

	// EngineStatusRunning indicates bars are being processed.
	EngineStatusRunning EngineStatus = "running"

	// EngineStatusError indicates the last run ended with a fault.
	EngineStatusError EngineStatus = "error"
)

// FeedMode selects how a run obtains its bars.
type FeedMode string

const (
	FeedModeMock   FeedMode = "mock"
	FeedModeLive   FeedMode = "live"
	FeedModeReplay FeedMode = "replay"
)

// Valid reports whether m is a known feed mode.
func (m FeedMode) Valid() bool {
	return m == FeedModeMock || m == FeedModeLive || m == FeedModeReplay
}

// RunParameters are the parameters a run was started with.
type RunParameters struct {
	Setup         SetupName `json:"setup"`
	PreviousClose float64   `json:"previous_close"`
	Leverage      float64   `json:"leverage"`
	Ratio         float64   `json:"ratio"`
	// MarketPrice is the derivative quote. None yields distance levels.
	MarketPrice optional.Option[float64] `json:"market_price"`
	Symbol      string                   `json:"symbol"`
	FeedMode    FeedMode                 `json:"feed_mode"`
}

// Snapshot is a consistent copy of the engine state at one point in time.
type Snapshot struct {
	RunID        string                   `json:"run_id"`
	Status       EngineStatus             `json:"status"`
	ErrorMessage string                   `json:"error_message,omitempty"`
	Price        optional.Option[float64] `json:"price"`
	LastBar      optional.Option[Bar]     `json:"last_bar"`
	BarCount     int                      `json:"bar_count"`
	Bars         []Bar                    `json:"bars"`
	Signals      []Signal                 `json:"signals"`
	Params       RunParameters            `json:"params"`
}

// LatestSignal returns the most recent signal, if any.
func (s Snapshot) LatestSignal() optional.Option[Signal] {
	if len(s.Signals) == 0 {
		return optional.None[Signal]()
	}

	return optional.Some(s.Signals[len(s.Signals)-1])
}
