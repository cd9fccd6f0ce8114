package utils

import (
	"github.com/shopspring/decimal"
)

// Round rounds value half away from zero to the given number of decimal places.
// The decimal representation avoids float artefacts such as 4.005 rounding to 4.00.
func Round(value float64, places int32) float64 {
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}

	return sum.Div(decimal.NewFromInt(int64(len(values)))).InexactFloat64()
}
