package indicator

import (
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// VWAP returns the volume weighted average of the typical price (H+L+C)/3
// across every bar in window, rounded to 4 decimals.
func VWAP(window []types.Bar) (float64, error) {
	totalVolume := 0.0
	weighted := 0.0

	for _, bar := range window {
		typical := (bar.High + bar.Low + bar.Close) / 3
		weighted += typical * bar.Volume
		totalVolume += bar.Volume
	}

	if totalVolume <= 0 {
		return 0, errors.NewInsufficientDataErrorf(1, 0, symbolOf(window),
			"vwap over %d bars has no volume", len(window))
	}

	return rounded("vwap", weighted/totalVolume, 4)
}
