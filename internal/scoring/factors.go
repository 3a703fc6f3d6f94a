package scoring

import (
	"math"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
)

// Factor tuning constants. These are rubric parameters, not config: changing
// them changes what the score means.
const (
	sweepWindowBars  = 10
	bosWindowBars    = 15
	obFreshBars      = 20
	obStaleBars      = 80
	fvgRefSize       = 0.005
	oteLow           = 0.618
	oteHigh          = 0.79
	oteSoftLow       = 0.5
	oteSoftHigh      = 0.88
	proximityPadding = 1.0 // range heights beyond the edge still scoring
)

// factorValues computes the raw value in [0,1] of every scoring factor for
// one candidate.
func factorValues(candles []core.Candle, index int, snap pattern.Snapshot, sig core.StrategySignal, minRR float64) map[string]float64 {
	price := candles[index].Close

	return map[string]float64{
		config.FactorStructure:    structureFactor(snap.Structure.Bias, sig.Direction),
		config.FactorKillZone:     killZoneFactor(snap.KillZone),
		config.FactorSweep:        sweepFactor(snap.Sweeps, sig.Direction, index),
		config.FactorOrderBlock:   orderBlockFactor(snap.OrderBlocks, sig.Direction, price, index),
		config.FactorFVG:          fvgFactor(snap.Gaps, sig.Direction, price),
		config.FactorBOS:          bosFactor(snap.Structure.Breaks, sig.Direction, index),
		config.FactorRiskReward:   rrFactor(sig, minRR),
		config.FactorOTE:          oteFactor(candles, index, snap, sig),
		config.FactorBreaker:      breakerFactor(snap.Breakers, sig.Direction, price),
		config.FactorOBFVGConflux: obFVGConfluenceFactor(snap, sig.Direction, price),
	}
}

func structureFactor(bias pattern.Bias, dir core.Direction) float64 {
	switch {
	case bias.Agrees(dir):
		return 1.0
	case bias == pattern.BiasNeutral:
		return 0.5
	}
	return 0
}

func killZoneFactor(kz pattern.KillZone) float64 {
	if !kz.Active {
		return 0
	}
	return clamp01(kz.Quality)
}

func sweepFactor(sweeps []pattern.LiquiditySweep, dir core.Direction, index int) float64 {
	best := 0.0
	for _, sw := range sweeps {
		if sw.Direction != dir {
			continue
		}
		if sw.Index > index || index-sw.Index > sweepWindowBars {
			continue
		}
		if c := clamp01(sw.Confidence); c > best {
			best = c
		}
	}
	return best
}

// orderBlockFactor grades the nearest fresh, unmitigated block on the signal
// side: full credit for a touched block younger than obFreshBars, decaying
// with both distance and age.
func orderBlockFactor(blocks []pattern.OrderBlock, dir core.Direction, price float64, index int) float64 {
	best := 0.0
	for _, ob := range blocks {
		if ob.Status != pattern.StatusUnmitigated {
			continue
		}
		if obDir, ok := sideOf(ob.Type); !ok || obDir != dir {
			continue
		}
		prox := rangeProximity(price, ob.High, ob.Low)
		if prox == 0 {
			continue
		}
		age := index - ob.Index
		fresh := 1.0
		if age > obFreshBars {
			fresh = clamp01(1 - float64(age-obFreshBars)/float64(obStaleBars))
		}
		if v := prox * fresh; v > best {
			best = v
		}
	}
	return best
}

// fvgFactor grades the nearest unfilled gap on the signal side by proximity
// and intrinsic quality (displacement origin, gap size).
func fvgFactor(gaps []pattern.FairValueGap, dir core.Direction, price float64) float64 {
	best := 0.0
	for _, g := range gaps {
		if g.Status != pattern.StatusUnfilled {
			continue
		}
		if gapDir, ok := sideOf(g.Type); !ok || gapDir != dir {
			continue
		}
		prox := rangeProximity(price, g.Top, g.Bottom)
		if prox == 0 {
			continue
		}
		quality := 0.4
		if g.Displacement {
			quality += 0.3
		}
		quality += 0.3 * clamp01(g.Size/fvgRefSize)
		if v := prox * quality; v > best {
			best = v
		}
	}
	return best
}

func bosFactor(breaks []pattern.StructureBreak, dir core.Direction, index int) float64 {
	best := 0.0
	for _, br := range breaks {
		if br.Type != pattern.BreakBOS || br.Direction != dir {
			continue
		}
		if br.Index > index || index-br.Index > bosWindowBars {
			continue
		}
		if c := clamp01(br.Confidence); c > best {
			best = c
		}
	}
	return best
}

func rrFactor(sig core.StrategySignal, minRR float64) float64 {
	if sig.RiskReward >= minRR {
		return 1
	}
	return 0
}

// oteFactor rewards continuation entries sitting in the optimal-retracement
// zone of the post-break swing. Reversals and signals without a structure
// break reference score zero.
func oteFactor(candles []core.Candle, index int, snap pattern.Snapshot, sig core.StrategySignal) float64 {
	if sig.Reversal || sig.StructureBreakRef < 0 || sig.StructureBreakRef >= len(snap.Structure.Breaks) {
		return 0
	}
	br := snap.Structure.Breaks[sig.StructureBreakRef]

	from := br.Index
	if from < 0 {
		from = 0
	}
	high, low := candleExtremes(candles, from, index)
	span := high - low
	if span <= 0 {
		return 0
	}

	var retrace float64
	if sig.Direction == core.DirectionLong {
		retrace = (high - candles[index].Close) / span
	} else {
		retrace = (candles[index].Close - low) / span
	}

	switch {
	case retrace >= oteLow && retrace <= oteHigh:
		return 1
	case retrace >= oteSoftLow && retrace <= oteSoftHigh:
		return 0.5
	}
	return 0
}

func breakerFactor(breakers []pattern.BreakerBlock, dir core.Direction, price float64) float64 {
	best := 0.0
	for _, bb := range breakers {
		if bbDir, ok := sideOf(bb.Type); !ok || bbDir != dir {
			continue
		}
		var v float64
		if bb.Contains(price) {
			v = 1
		} else if rangeProximity(price, bb.High, bb.Low) > 0 {
			v = 0.5
		}
		if v > best {
			best = v
		}
	}
	return best
}

// obFVGConfluenceFactor rewards a block and a gap stacking at the entry: the
// weaker of the two proximities gates the value.
func obFVGConfluenceFactor(snap pattern.Snapshot, dir core.Direction, price float64) float64 {
	obProx := 0.0
	for _, ob := range snap.OrderBlocks {
		if ob.Status != pattern.StatusUnmitigated {
			continue
		}
		if obDir, ok := sideOf(ob.Type); !ok || obDir != dir {
			continue
		}
		if p := rangeProximity(price, ob.High, ob.Low); p > obProx {
			obProx = p
		}
	}
	gapProx := 0.0
	for _, g := range snap.Gaps {
		if g.Status != pattern.StatusUnfilled {
			continue
		}
		if gapDir, ok := sideOf(g.Type); !ok || gapDir != dir {
			continue
		}
		if p := rangeProximity(price, g.Top, g.Bottom); p > gapProx {
			gapProx = p
		}
	}
	return math.Min(obProx, gapProx)
}

// rangeProximity is 1 inside [low, high] and decays linearly to 0 at
// proximityPadding range-heights beyond the nearest edge. Degenerate ranges
// only score on an exact touch.
func rangeProximity(price, high, low float64) float64 {
	if price >= low && price <= high {
		return 1
	}
	height := high - low
	if height <= 0 {
		return 0
	}
	var dist float64
	if price < low {
		dist = low - price
	} else {
		dist = price - high
	}
	return clamp01(1 - dist/(proximityPadding*height))
}

func sideOf(b pattern.Bias) (core.Direction, bool) {
	switch b {
	case pattern.BiasBullish:
		return core.DirectionLong, true
	case pattern.BiasBearish:
		return core.DirectionShort, true
	}
	return "", false
}

func candleExtremes(candles []core.Candle, from, to int) (high, low float64) {
	high = candles[from].High
	low = candles[from].Low
	for i := from + 1; i <= to && i < len(candles); i++ {
		if candles[i].High > high {
			high = candles[i].High
		}
		if candles[i].Low < low {
			low = candles[i].Low
		}
	}
	return high, low
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
