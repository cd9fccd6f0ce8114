package types

// AbsoluteLevels are derivative prices derived from a known market price and ratio.
type AbsoluteLevels struct {
	Financing   float64 `json:"financing" yaml:"financing"`
	Ratio       float64 `json:"ratio" yaml:"ratio"`
	MarketPrice float64 `json:"market_price" yaml:"market_price"`
	StopPrice   float64 `json:"stop_price" yaml:"stop_price"`
	TargetPrice float64 `json:"target_price" yaml:"target_price"`
}

// DistanceLevels are leverage-scaled distances from the entry, used when the
// derivative's market price or ratio is unknown.
type DistanceLevels struct {
	StopDistance   float64 `json:"stop_distance" yaml:"stop_distance"`
	TargetDistance float64 `json:"target_distance" yaml:"target_distance"`
}

// DerivativeLevels is the translation of a signal into derivative terms.
// Exactly one of Absolute and Distance is set.
type DerivativeLevels struct {
	Leverage  float64         `json:"leverage" yaml:"leverage"`
	LongISIN  string          `json:"long_isin,omitempty" yaml:"long_isin,omitempty"`
	ShortISIN string          `json:"short_isin,omitempty" yaml:"short_isin,omitempty"`
	Absolute  *AbsoluteLevels `json:"absolute,omitempty" yaml:"absolute,omitempty"`
	Distance  *DistanceLevels `json:"distance,omitempty" yaml:"distance,omitempty"`
}

// IsAbsolute reports whether the levels carry absolute derivative prices.
func (d DerivativeLevels) IsAbsolute() bool {
	return d.Absolute != nil
}

// ISIN returns the product identifier matching the side.
func (d DerivativeLevels) ISIN(side Side) string {
	if side == SideShort {
		return d.ShortISIN
	}

	return d.LongISIN
}

// Clone returns a deep copy.
func (d DerivativeLevels) Clone() DerivativeLevels {
	out := d

	if d.Absolute != nil {
		abs := *d.Absolute
		out.Absolute = &abs
	}

	if d.Distance != nil {
		dist := *d.Distance
		out.Distance = &dist
	}

	return out
}
