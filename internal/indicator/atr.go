package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// ATRMethod selects how true ranges are averaged.
type ATRMethod string

const (
	// MethodWilder seeds with a simple mean and then applies Wilder's smoothing.
	MethodWilder ATRMethod = "wilder"
	// MethodSimple is the plain mean of the last period true ranges.
	MethodSimple ATRMethod = "simple"
)

// DefaultATRPeriod is the period used by detectors that size stops from volatility.
const DefaultATRPeriod = 14

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(bar types.Bar, prevClose float64) float64 {
	return math.Max(
		bar.High-bar.Low,
		math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)),
	)
}

// ATR returns the average true range of window, rounded to 6 decimals.
// Non-finite prices fail with ErrCodeIndicatorCalculation.
// At least period+1 bars are needed because every true range uses the previous close.
func ATR(window []types.Bar, period int, method ATRMethod) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	if len(window) < period+1 {
		return 0, errors.NewInsufficientDataErrorf(period+1, len(window), symbolOf(window),
			"atr(%d) needs %d bars, have %d", period, period+1, len(window))
	}

	trs := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		trs = append(trs, TrueRange(window[i], window[i-1].Close))
	}

	switch method {
	case MethodWilder:
		atr := 0.0
		for _, tr := range trs[:period] {
			atr += tr
		}

		atr /= float64(period)
		for _, tr := range trs[period:] {
			atr = (atr*float64(period-1) + tr) / float64(period)
		}

		return rounded("atr", atr, 6)
	case MethodSimple:
		sum := 0.0
		for _, tr := range trs[len(trs)-period:] {
			sum += tr
		}

		return rounded("atr", sum/float64(period), 6)
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "unknown atr method %q", method)
	}
}

func symbolOf(window []types.Bar) string {
	if len(window) == 0 {
		return ""
	}

	return window[len(window)-1].Symbol
}
