package detector

import (
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/pkg/errors"
)

// GapFillParams configures the morning gap fill setup.
type GapFillParams struct {
	Start        string  `mapstructure:"start" json:"start" yaml:"start" jsonschema:"description=Window start (HH:MM),default=08:05" validate:"required,hhmm"`
	End          string  `mapstructure:"end" json:"end" yaml:"end" jsonschema:"description=Window end (HH:MM),default=09:00" validate:"required,hhmm"`
	GapMin       float64 `mapstructure:"gap_min" json:"gap_min" yaml:"gap_min" jsonschema:"description=Minimum gap down below the previous close,default=10" validate:"gte=0"`
	VolMin       float64 `mapstructure:"vol_min" json:"vol_min" yaml:"vol_min" jsonschema:"description=Minimum volume of the opening bar,default=5000" validate:"gte=0"`
	TPRatio      float64 `mapstructure:"tp_ratio" json:"tp_ratio" yaml:"tp_ratio" jsonschema:"description=Reward to risk multiple when the gap is already filled,default=1.5" validate:"gt=0"`
	SLBuffer     float64 `mapstructure:"sl_buffer" json:"sl_buffer" yaml:"sl_buffer" jsonschema:"description=Fixed stop buffer used when ATR is unavailable,default=0" validate:"gte=0"`
	ATRBufferK   float64 `mapstructure:"atr_buffer_k" json:"atr_buffer_k" yaml:"atr_buffer_k" jsonschema:"description=ATR multiple for the stop buffer,default=0.3" validate:"gte=0"`
	ATRMinBuffer float64 `mapstructure:"atr_min_buffer" json:"atr_min_buffer" yaml:"atr_min_buffer" jsonschema:"description=Floor of the ATR stop buffer,default=0.2" validate:"gte=0"`
	Lookback     int     `mapstructure:"lookback" json:"lookback" yaml:"lookback" jsonschema:"description=Bars scanned for the stop low,default=5" validate:"min=1"`
}

// MomentumParams configures the morning momentum setup.
type MomentumParams struct {
	Start      string  `mapstructure:"start" json:"start" yaml:"start" jsonschema:"description=Window start (HH:MM),default=09:15" validate:"required,hhmm"`
	End        string  `mapstructure:"end" json:"end" yaml:"end" jsonschema:"description=Window end (HH:MM),default=10:00" validate:"required,hhmm"`
	VolMin     float64 `mapstructure:"vol_min" json:"vol_min" yaml:"vol_min" jsonschema:"description=Minimum volume of the trigger bar,default=3000" validate:"gte=0"`
	NConfirm   int     `mapstructure:"n_confirm" json:"n_confirm" yaml:"n_confirm" jsonschema:"description=Consecutive confirming bars,default=2" validate:"min=1"`
	TPRatio    float64 `mapstructure:"tp_ratio" json:"tp_ratio" yaml:"tp_ratio" jsonschema:"description=Reward to risk multiple,default=1.75" validate:"gt=0"`
	SLLookback int     `mapstructure:"sl_lookback" json:"sl_lookback" yaml:"sl_lookback" jsonschema:"description=Bars scanned for the stop level,default=3" validate:"min=1"`
}

// OpeningRangeParams configures the opening range breakout setup.
type OpeningRangeParams struct {
	RangeStart    string  `mapstructure:"range_start" json:"range_start" yaml:"range_start" jsonschema:"description=Range build start (HH:MM),default=08:05" validate:"required,hhmm"`
	RangeEnd      string  `mapstructure:"range_end" json:"range_end" yaml:"range_end" jsonschema:"description=Range build end which is exclusive (HH:MM),default=08:20" validate:"required,hhmm"`
	BreakEnd      string  `mapstructure:"break_end" json:"break_end" yaml:"break_end" jsonschema:"description=Last breakout time (HH:MM),default=08:45" validate:"required,hhmm"`
	VolMin        float64 `mapstructure:"vol_min" json:"vol_min" yaml:"vol_min" jsonschema:"description=Minimum volume of the breakout bar,default=5000" validate:"gte=0"`
	TPRatio       float64 `mapstructure:"tp_ratio" json:"tp_ratio" yaml:"tp_ratio" jsonschema:"description=Target as a multiple of the range size,default=1.3" validate:"gt=0"`
	RangeNCandles int     `mapstructure:"range_n_candles" json:"range_n_candles" yaml:"range_n_candles" jsonschema:"description=Bars building the range in forced mode,default=15" validate:"min=1"`
	ForceWindow   bool    `mapstructure:"force_window" json:"force_window" yaml:"force_window" jsonschema:"description=Build the range from the first bars instead of the clock"`
}

// ClosingReversionParams configures the closing VWAP reversion setup.
type ClosingReversionParams struct {
	Start         string  `mapstructure:"start" json:"start" yaml:"start" jsonschema:"description=Window start (HH:MM),default=16:00" validate:"required,hhmm"`
	End           string  `mapstructure:"end" json:"end" yaml:"end" jsonschema:"description=Window end (HH:MM),default=16:25" validate:"required,hhmm"`
	VolMin        float64 `mapstructure:"vol_min" json:"vol_min" yaml:"vol_min" jsonschema:"description=Minimum volume of the trigger bar,default=3000" validate:"gte=0"`
	VWAPThreshold float64 `mapstructure:"vwap_threshold" json:"vwap_threshold" yaml:"vwap_threshold" jsonschema:"description=Minimum distance between close and VWAP,default=10" validate:"gte=0"`
	SLBuffer      float64 `mapstructure:"sl_buffer" json:"sl_buffer" yaml:"sl_buffer" jsonschema:"description=Stop distance from the entry,default=4" validate:"gte=0"`
	TPBuffer      float64 `mapstructure:"tp_buffer" json:"tp_buffer" yaml:"tp_buffer" jsonschema:"description=Target offset from the VWAP,default=2" validate:"gte=0"`
}

// BreakoutParams configures the generic breakout setup.
type BreakoutParams struct {
	Lookback int     `mapstructure:"lookback" json:"lookback" yaml:"lookback" jsonschema:"description=Bars forming the prior range,default=20" validate:"min=1"`
	VolMA    int     `mapstructure:"vol_ma" json:"vol_ma" yaml:"vol_ma" jsonschema:"description=Bars in the volume average,default=20" validate:"min=1"`
	VolMult  float64 `mapstructure:"vol_mult" json:"vol_mult" yaml:"vol_mult" jsonschema:"description=Required multiple of the average volume,default=1.5" validate:"gt=0"`
	TPRatio  float64 `mapstructure:"tp_ratio" json:"tp_ratio" yaml:"tp_ratio" jsonschema:"description=Reward to risk multiple,default=2" validate:"gt=0"`
}

// DefaultGapFillParams returns the documented defaults.
func DefaultGapFillParams() GapFillParams {
	return GapFillParams{
		Start:        "08:05",
		End:          "09:00",
		GapMin:       10,
		VolMin:       5000,
		TPRatio:      1.5,
		SLBuffer:     0,
		ATRBufferK:   0.30,
		ATRMinBuffer: 0.20,
		Lookback:     5,
	}
}

// DefaultMomentumParams returns the documented defaults.
func DefaultMomentumParams() MomentumParams {
	return MomentumParams{
		Start:      "09:15",
		End:        "10:00",
		VolMin:     3000,
		NConfirm:   2,
		TPRatio:    1.75,
		SLLookback: 3,
	}
}

// DefaultOpeningRangeParams returns the documented defaults.
func DefaultOpeningRangeParams() OpeningRangeParams {
	return OpeningRangeParams{
		RangeStart:    "08:05",
		RangeEnd:      "08:20",
		BreakEnd:      "08:45",
		VolMin:        5000,
		TPRatio:       1.3,
		RangeNCandles: 15,
		ForceWindow:   false,
	}
}

// DefaultClosingReversionParams returns the documented defaults.
func DefaultClosingReversionParams() ClosingReversionParams {
	return ClosingReversionParams{
		Start:         "16:00",
		End:           "16:25",
		VolMin:        3000,
		VWAPThreshold: 10,
		SLBuffer:      4,
		TPBuffer:      2,
	}
}

// DefaultBreakoutParams returns the documented defaults.
func DefaultBreakoutParams() BreakoutParams {
	return BreakoutParams{
		Lookback: 20,
		VolMA:    20,
		VolMult:  1.5,
		TPRatio:  2.0,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := parseClock(fl.Field().String())

		return err == nil
	}); err != nil {
		panic(err)
	}

	return v
}

// decodeParams overlays raw onto out, which already holds the defaults, and validates the result.
// Numbers may arrive as ints, floats or numeric strings.
func decodeParams(setup types.SetupName, raw map[string]any, out any) error {
	if len(raw) > 0 {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           out,
			TagName:          "mapstructure",
		})
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "setup %s: create decoder", setup)
		}

		if err := decoder.Decode(raw); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "setup %s: decode parameters", setup)
		}
	}

	if err := validate.Struct(out); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "setup %s: invalid parameters", setup)
	}

	return nil
}

// windowFor builds a validated time window, wrapping failures as configuration errors.
func windowFor(setup types.SetupName, start, end string) (timeWindow, error) {
	w, err := newTimeWindow(start, end)
	if err != nil {
		return timeWindow{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "setup %s: invalid window", setup)
	}

	return w, nil
}
