// Package indicator computes ATR and VWAP over a bounded bar window.
//
// The functions are pure: they read the window they are given and keep no state.
// A window that is too short is reported as *errors.InsufficientDataError,
// which callers treat as "no decision yet" rather than as a zero value.
package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-setups/internal/utils"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// IsUnavailable reports whether err means the indicator has no value yet.
func IsUnavailable(err error) bool {
	return errors.IsInsufficientDataError(err)
}

// rounded rejects NaN and infinite results before rounding them to places.
func rounded(name string, value float64, places int32) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.Newf(errors.ErrCodeIndicatorCalculation, "%s is not a finite number: %v", name, value)
	}

	return utils.Round(value, places), nil
}
