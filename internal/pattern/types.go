// Package pattern defines the contract with the external price-pattern
// library. Detection itself (order blocks, fair value gaps, sweeps, regimes,
// kill zones) happens upstream; this package carries the annotation types, a
// Provider capability for consuming them, and the higher-timeframe
// aggregation used by the multi-timeframe bias filter.
package pattern

import "github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"

// Bias is a directional market-structure bias.
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// Agrees reports whether a trade direction aligns with the bias.
func (b Bias) Agrees(d core.Direction) bool {
	switch b {
	case BiasBullish:
		return d == core.DirectionLong
	case BiasBearish:
		return d == core.DirectionShort
	}
	return false
}

// BreakType classifies a structure break.
type BreakType string

const (
	BreakBOS   BreakType = "bos"   // break of structure (continuation)
	BreakCHoCH BreakType = "choch" // change of character (reversal)
)

// StructureBreak is one break event in the structure context.
type StructureBreak struct {
	Type       BreakType
	Direction  core.Direction
	Confidence float64 // in [0,1]
	Index      int     // bar that broke the level
}

// StructureContext is the directional bias plus the ordered break list.
type StructureContext struct {
	Bias   Bias
	Breaks []StructureBreak
}

// LastBreak returns the most recent structure break, or nil.
func (s StructureContext) LastBreak() *StructureBreak {
	if len(s.Breaks) == 0 {
		return nil
	}
	return &s.Breaks[len(s.Breaks)-1]
}

// BlockStatus tracks order-block mitigation. Transitions are monotone:
// unmitigated -> mitigated, never back.
type BlockStatus string

const (
	StatusUnmitigated BlockStatus = "unmitigated"
	StatusMitigated   BlockStatus = "mitigated"
)

// OrderBlock is a candle range flagged as institutional accumulation or
// distribution.
type OrderBlock struct {
	Index    int
	Type     Bias // bullish or bearish
	High     float64
	Low      float64
	Status   BlockStatus
	Strength float64
}

// Contains reports whether price is inside the block's range.
func (b OrderBlock) Contains(price float64) bool {
	return price >= b.Low && price <= b.High
}

// Mid returns the midpoint of the block range.
func (b OrderBlock) Mid() float64 {
	return (b.High + b.Low) / 2
}

// GapStatus tracks fair-value-gap fill state. Monotone: unfilled -> filled.
type GapStatus string

const (
	StatusUnfilled GapStatus = "unfilled"
	StatusFilled   GapStatus = "filled"
)

// FairValueGap is a three-candle imbalance. Size is the gap height as a
// fraction of price.
type FairValueGap struct {
	Index        int
	Type         Bias
	Top          float64
	Bottom       float64
	Status       GapStatus
	Displacement bool
	Size         float64
}

// Contains reports whether price is inside the gap.
func (g FairValueGap) Contains(price float64) bool {
	return price >= g.Bottom && price <= g.Top
}

// Mid returns the midpoint of the gap.
func (g FairValueGap) Mid() float64 {
	return (g.Top + g.Bottom) / 2
}

// LiquiditySweep marks a raid of resting liquidity followed by rejection;
// Direction is the side of the expected move after the sweep.
type LiquiditySweep struct {
	Index      int
	Direction  core.Direction
	Level      float64
	Confidence float64
}

// BreakerBlock is a failed order block acting as support/resistance from the
// other side.
type BreakerBlock struct {
	Index int
	Type  Bias
	High  float64
	Low   float64
}

// Contains reports whether price is inside the breaker range.
func (b BreakerBlock) Contains(price float64) bool {
	return price >= b.Low && price <= b.High
}

// Trend and volatility buckets of a regime label.
type (
	TrendBucket string
	VolBucket   string
)

const (
	TrendUp      TrendBucket = "trending_up"
	TrendDown    TrendBucket = "trending_down"
	TrendRanging TrendBucket = "ranging"

	VolLow    VolBucket = "low"
	VolNormal VolBucket = "normal"
	VolHigh   VolBucket = "high"
)

// RegimeLabel is the discrete regime bucket pair plus the continuous values
// behind it.
type RegimeLabel struct {
	Trend         TrendBucket
	Volatility    VolBucket
	Efficiency    float64
	TrendStrength float64
	ATRPercentile float64
}

// Key returns the "trend/vol" form used by regime suppression lists.
func (r RegimeLabel) Key() string {
	return string(r.Trend) + "/" + string(r.Volatility)
}

// KillZone describes the time-of-day session at a bar. Quality is a
// fractional session score in [0,1]; zero when no session is active.
type KillZone struct {
	Active  bool
	Name    string
	Quality float64
}

// Snapshot is everything the pattern library knows at one bar. All indices
// are local to the candle slice handed to the scorer.
type Snapshot struct {
	Structure   StructureContext
	OrderBlocks []OrderBlock
	Gaps        []FairValueGap
	Sweeps      []LiquiditySweep
	Breakers    []BreakerBlock
	Regime      RegimeLabel
	KillZone    KillZone
}
