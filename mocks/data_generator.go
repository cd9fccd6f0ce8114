package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-setups/internal/types"
)

// DataGenerator produces seeded random-walk bars for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a generator. The same seed always yields the same bars.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// TradingHours bounds each session in minutes after midnight of StartTime's location.
// Bars at or after Close roll over to Open on the next weekday.
type TradingHours struct {
	Open  int
	Close int
}

// GeneratorConfig configures how bars are generated.
type GeneratorConfig struct {
	Symbol       string
	StartTime    time.Time
	Interval     time.Duration
	Count        int
	InitialPrice float64
	// Volatility is the standard deviation of the per-bar return (0.002 = 0.2%).
	Volatility float64
	// Trend is the total drift spread over all bars.
	Trend          float64
	VolumeBase     float64
	VolumeVariance float64
	// Hours splits the series into sessions. Nil produces one continuous series.
	Hours *TradingHours
	// Gap moves the first open of every new session relative to the last close (-0.01 = 1% gap down).
	Gap float64
}

// DefaultConfig returns one continuous series of 1-minute bars around 100.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartTime:      time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          1000,
		InitialPrice:   100.0,
		Volatility:     0.002,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// EuronextHours are the continuous trading hours of Euronext Amsterdam.
func EuronextHours() *TradingHours {
	return &TradingHours{Open: 9 * 60, Close: 17*60 + 30}
}

// Generate walks the price with geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Bar {
	bars := make([]types.Bar, 0, config.Count)
	price := config.InitialPrice
	at := config.StartTime
	drift := 0.0

	if config.Count > 0 {
		drift = config.Trend / float64(config.Count)
	}

	for len(bars) < config.Count {
		if next, rolled := config.Hours.align(at); rolled {
			at = next
			if len(bars) > 0 {
				price *= 1 + config.Gap
			}
		}

		bar := g.step(config, price, drift)
		bar.Time = at
		bars = append(bars, bar)

		price = bar.Close
		at = at.Add(config.Interval)
	}

	return bars
}

func (g *DataGenerator) step(config GeneratorConfig, open, drift float64) types.Bar {
	closePrice := open * (1 + config.Volatility*g.normal() + drift)
	if closePrice <= 0 {
		closePrice = open * 0.99
	}

	wick := config.Volatility * open * 0.5
	high := math.Max(open, closePrice) + g.rng.Float64()*wick
	low := math.Min(open, closePrice) - g.rng.Float64()*wick

	if low <= 0 {
		low = math.Min(open, closePrice) * 0.99
	}

	volume := config.VolumeBase * (1 + (g.rng.Float64()*2-1)*config.VolumeVariance)
	if volume < 0 {
		volume = config.VolumeBase * 0.1
	}

	return types.Bar{
		Symbol: config.Symbol,
		Open:   roundToDecimals(open, 4),
		High:   roundToDecimals(high, 4),
		Low:    roundToDecimals(low, 4),
		Close:  roundToDecimals(closePrice, 4),
		Volume: math.Round(volume),
	}
}

// normal draws a standard normal sample with the Box-Muller transform.
func (g *DataGenerator) normal() float64 {
	u1 := g.rng.Float64()
	u2 := g.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// align moves t into trading hours. rolled is true when t starts a new session.
func (h *TradingHours) align(t time.Time) (time.Time, bool) {
	if h == nil {
		return t, false
	}

	minutes := t.Hour()*60 + t.Minute()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())

	switch {
	case isWeekend(day):
	case minutes < h.Open:
		return day.Add(time.Duration(h.Open) * time.Minute), true
	case minutes < h.Close:
		return t, false
	}

	for day = day.AddDate(0, 0, 1); isWeekend(day); day = day.AddDate(0, 0, 1) {
	}

	return day.Add(time.Duration(h.Open) * time.Minute), true
}

func isWeekend(day time.Time) bool {
	return day.Weekday() == time.Saturday || day.Weekday() == time.Sunday
}

// SessionBuilder produces hand-written bars at a fixed interval, for detector scenarios.
type SessionBuilder struct {
	symbol   string
	next     time.Time
	interval time.Duration
}

// NewSession starts a session whose first bar is stamped at hh:mm on the given day.
func NewSession(symbol string, day time.Time, hh, mm int) *SessionBuilder {
	return &SessionBuilder{
		symbol:   symbol,
		next:     time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, day.Location()),
		interval: time.Minute,
	}
}

// At moves the clock so that the next bar is stamped at hh:mm on the same day.
func (s *SessionBuilder) At(hh, mm int) *SessionBuilder {
	s.next = time.Date(s.next.Year(), s.next.Month(), s.next.Day(), hh, mm, 0, 0, s.next.Location())

	return s
}

// Bar returns the next bar and advances the clock by one interval.
func (s *SessionBuilder) Bar(open, high, low, closePrice, volume float64) types.Bar {
	bar := types.Bar{
		Symbol: s.symbol,
		Time:   s.next,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}
	s.next = s.next.Add(s.interval)

	return bar
}

// Flat returns a bar with open=high=low=close=price.
func (s *SessionBuilder) Flat(price, volume float64) types.Bar {
	return s.Bar(price, price, price, price, volume)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
