package types

import "time"

// Side is the direction of an advisory signal.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// SetupName is the canonical key of a detector variant.
type SetupName string

const (
	SetupMorningGap        SetupName = "morning_gap"
	SetupMorningMomentum   SetupName = "morning_momentum"
	SetupOpeningRangeBreak SetupName = "opening_range_break"
	SetupClosingReversion  SetupName = "closing_reversion"
	SetupBreakout          SetupName = "breakout"
)

// AllSetups lists every supported setup in display order.
var AllSetups = []SetupName{
	SetupMorningGap,
	SetupMorningMomentum,
	SetupOpeningRangeBreak,
	SetupClosingReversion,
	SetupBreakout,
}

// DisplayName returns the human readable name shown in dashboards and logs.
func (s SetupName) DisplayName() string {
	switch s {
	case SetupMorningGap:
		return "Morning Gap Fill"
	case SetupMorningMomentum:
		return "Morning Momentum"
	case SetupOpeningRangeBreak:
		return "Opening Range Breakout"
	case SetupClosingReversion:
		return "Closing VWAP Reversion"
	case SetupBreakout:
		return "Generic Breakout"
	default:
		return string(s)
	}
}

// Valid reports whether s is one of the supported setups.
func (s SetupName) Valid() bool {
	for _, name := range AllSetups {
		if name == s {
			return true
		}
	}

	return false
}

// Signal is an advisory emitted by a detector.
type Signal struct {
	// ID uniquely identifies the signal
	ID string `json:"id" yaml:"id"`
	// Side is LONG or SHORT
	Side Side `json:"side" yaml:"side"`
	// Symbol is the underlying symbol the signal refers to
	Symbol string `json:"symbol" yaml:"symbol"`
	// Time is the time of the bar that triggered the signal
	Time time.Time `json:"time" yaml:"time"`
	// Entry, Stop and Target are expressed in the underlying's price
	Entry  float64 `json:"entry" yaml:"entry"`
	Stop   float64 `json:"stop" yaml:"stop"`
	Target float64 `json:"target" yaml:"target"`
	// Setup is the canonical key of the detector
	Setup SetupName `json:"setup" yaml:"setup"`
	// SetupName is the display name of the detector
	SetupName string `json:"setup_name" yaml:"setup_name"`
	// Meta holds setup specific values such as range bounds or the VWAP
	Meta map[string]float64 `json:"meta,omitempty" yaml:"meta,omitempty"`
	// Levels is attached by the engine after translation
	Levels *DerivativeLevels `json:"levels,omitempty" yaml:"levels,omitempty"`
}

// RiskReward returns |target-entry| / |entry-stop|, or 0 when the risk is zero.
func (s Signal) RiskReward() float64 {
	risk := s.Entry - s.Stop
	if risk < 0 {
		risk = -risk
	}

	if risk == 0 {
		return 0
	}

	reward := s.Target - s.Entry
	if reward < 0 {
		reward = -reward
	}

	return reward / risk
}

// Clone returns a deep copy of the signal.
func (s Signal) Clone() Signal {
	out := s

	if s.Meta != nil {
		out.Meta = make(map[string]float64, len(s.Meta))
		for k, v := range s.Meta {
			out.Meta[k] = v
		}
	}

	if s.Levels != nil {
		levels := s.Levels.Clone()
		out.Levels = &levels
	}

	return out
}
