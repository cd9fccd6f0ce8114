// Package translator maps advisory levels on the underlying to the price
// levels of a leveraged derivative (turbo).
package translator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-setups/internal/types"
	"github.com/rxtech-lab/argo-setups/internal/utils"
	"github.com/shopspring/decimal"
)

// DefaultLeverage is used when no leverage is configured.
const DefaultLeverage = 10.0

// Config configures a Translator.
type Config struct {
	// Leverage scales the distance fallback and is reported with every result
	Leverage float64 `yaml:"leverage" json:"leverage"`
	// LongISIN and ShortISIN identify the products, for display only
	LongISIN  string `yaml:"long_isin" json:"long_isin"`
	ShortISIN string `yaml:"short_isin" json:"short_isin"`
}

// Translator converts signals into derivative levels. It holds no mutable state.
type Translator struct {
	leverage  float64
	longISIN  string
	shortISIN string
}

// New creates a translator. A non-positive leverage falls back to DefaultLeverage.
func New(cfg Config) *Translator {
	leverage := cfg.Leverage
	if leverage <= 0 {
		leverage = DefaultLeverage
	}

	return &Translator{
		leverage:  utils.Round(leverage, 2),
		longISIN:  cfg.LongISIN,
		shortISIN: cfg.ShortISIN,
	}
}

// Leverage returns the leverage used for the distance fallback.
func (t *Translator) Leverage() float64 {
	return t.leverage
}

// Translate maps the signal's stop and target to derivative terms.
//
// With both a market price and a positive ratio the result carries absolute
// derivative prices derived from the financing level implied by underlyingPrice.
// Otherwise the result carries the stop and target distances divided by the leverage.
func (t *Translator) Translate(sig types.Signal, underlyingPrice float64, marketPrice, ratio optional.Option[float64]) types.DerivativeLevels {
	levels := types.DerivativeLevels{
		Leverage:  t.leverage,
		LongISIN:  t.longISIN,
		ShortISIN: t.shortISIN,
		Absolute:  nil,
		Distance:  nil,
	}

	if marketPrice.IsSome() && ratio.IsSome() && ratio.Unwrap() > 0 {
		levels.Absolute = absolute(sig, underlyingPrice, marketPrice.Unwrap(), ratio.Unwrap())

		return levels
	}

	levels.Distance = &types.DistanceLevels{
		StopDistance:   utils.Round(math.Abs(sig.Entry-sig.Stop)/t.leverage, 4),
		TargetDistance: utils.Round(math.Abs(sig.Target-sig.Entry)/t.leverage, 4),
	}

	return levels
}

func absolute(sig types.Signal, underlyingPrice, marketPrice, ratio float64) *types.AbsoluteLevels {
	underlying := decimal.NewFromFloat(underlyingPrice)
	r := decimal.NewFromFloat(ratio)
	intrinsic := decimal.NewFromFloat(marketPrice).Mul(r)
	stop := decimal.NewFromFloat(sig.Stop)
	target := decimal.NewFromFloat(sig.Target)

	var financing, turboStop, turboTarget decimal.Decimal

	if sig.Side == types.SideShort {
		financing = underlying.Add(intrinsic)
		turboStop = financing.Sub(stop).Div(r)
		turboTarget = financing.Sub(target).Div(r)
	} else {
		financing = underlying.Sub(intrinsic)
		turboStop = stop.Sub(financing).Div(r)
		turboTarget = target.Sub(financing).Div(r)
	}

	return &types.AbsoluteLevels{
		Financing:   financing.Round(6).InexactFloat64(),
		Ratio:       ratio,
		MarketPrice: utils.Round(marketPrice, 6),
		StopPrice:   turboStop.Round(2).InexactFloat64(),
		TargetPrice: turboTarget.Round(2).InexactFloat64(),
	}
}
