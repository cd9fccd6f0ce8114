package detector

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/indicator"
	"github.com/rxtech-lab/argo-setups/internal/logger"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/internal/utils"
	"github.com/rxtech-lab/argo-setups/internal/window"
)

const (
	closingHistorySize = 5000
	closingMinBars     = 10
)

// ClosingReversion fires once in the closing window when the close has moved
// at least vwap_threshold away from the VWAP of every retained bar.
type ClosingReversion struct {
	params  ClosingReversionParams
	hours   timeWindow
	history *window.Window
	log     *logger.Logger

	fired bool
}

// NewClosingReversion creates a closing reversion detector from typed parameters.
func NewClosingReversion(params ClosingReversionParams, opts ...Option) (*ClosingReversion, error) {
	return newClosingReversion(params, buildOptions(opts))
}

func newClosingReversion(params ClosingReversionParams, o options) (*ClosingReversion, error) {
	if err := decodeParams(types.SetupClosingReversion, nil, &params); err != nil {
		return nil, err
	}

	hours, err := windowFor(types.SetupClosingReversion, params.Start, params.End)
	if err != nil {
		return nil, err
	}

	if o.forcedWindow {
		hours = wholeDay()
	}

	return &ClosingReversion{
		params:  params,
		hours:   hours,
		history: window.New(closingHistorySize),
		log:     o.log.Named("closing_reversion"),
		fired:   false,
	}, nil
}

// Name implements Detector.
func (c *ClosingReversion) Name() types.SetupName {
	return types.SetupClosingReversion
}

// OnBar implements Detector.
func (c *ClosingReversion) OnBar(bar types.Bar) optional.Option[types.Signal] {
	c.history.Add(bar)

	if c.fired || !c.hours.contains(bar) || bar.Volume < c.params.VolMin {
		return optional.None[types.Signal]()
	}

	if c.history.Len() < closingMinBars {
		return optional.None[types.Signal]()
	}

	vwap, err := indicator.VWAP(c.history.View())
	if err != nil {
		return optional.None[types.Signal]()
	}

	deviation := bar.Close - vwap
	if math.Abs(deviation) < c.params.VWAPThreshold {
		return optional.None[types.Signal]()
	}

	meta := map[string]float64{
		"vwap":      vwap,
		"deviation": utils.Round(deviation, 4),
	}

	entry := bar.Close

	var sig types.Signal
	if deviation > 0 {
		sig = newSignal(types.SetupClosingReversion, types.SideShort, bar,
			entry, entry+c.params.SLBuffer, vwap+c.params.TPBuffer, meta)
	} else {
		sig = newSignal(types.SetupClosingReversion, types.SideLong, bar,
			entry, entry-c.params.SLBuffer, vwap-c.params.TPBuffer, meta)
	}

	c.fired = true

	return optional.Some(sig)
}
