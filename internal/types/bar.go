package types

import "time"

// Bar is one fixed-interval OHLCV observation for a symbol.
// Time carries its location so detectors can read the local time of day.
type Bar struct {
	Symbol string    `json:"symbol" yaml:"symbol" csv:"symbol"`
	Time   time.Time `json:"time" yaml:"time" csv:"time"`
	Open   float64   `json:"open" yaml:"open" csv:"open"`
	High   float64   `json:"high" yaml:"high" csv:"high"`
	Low    float64   `json:"low" yaml:"low" csv:"low"`
	Close  float64   `json:"close" yaml:"close" csv:"close"`
	Volume float64   `json:"volume" yaml:"volume" csv:"volume"`
}

// SessionDate returns the calendar date of the bar in its own location.
func (b Bar) SessionDate() string {
	return b.Time.Format(time.DateOnly)
}
