package strategy

import (
	"math"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
)

// buildSignal fills the derived fields of a candidate and rejects degenerate
// geometry (zero risk, inverted targets).
func buildSignal(name string, dir core.Direction, entry, stop, tp float64) *core.StrategySignal {
	risk := math.Abs(entry - stop)
	reward := math.Abs(entry - tp)
	if risk <= 0 || reward <= 0 {
		return nil
	}
	// Stop must be on the losing side and target on the winning side.
	if dir == core.DirectionLong && (stop >= entry || tp <= entry) {
		return nil
	}
	if dir == core.DirectionShort && (stop <= entry || tp >= entry) {
		return nil
	}

	sig := &core.StrategySignal{
		Strategy:          name,
		Direction:         dir,
		Entry:             entry,
		StopLoss:          stop,
		TakeProfit:        tp,
		RiskReward:        reward / risk,
		OrderBlockRef:     -1,
		FVGRef:            -1,
		StructureBreakRef: -1,
	}
	if !sig.Valid() {
		return nil
	}
	return sig
}

// swingRange returns the extreme high and low over candles[from:to+1].
func swingRange(candles []core.Candle, from, to int) (high, low float64) {
	if from < 0 {
		from = 0
	}
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

// directionFor maps a bullish/bearish annotation to a trade side. Neutral
// annotations produce no side.
func directionFor(b pattern.Bias) (core.Direction, bool) {
	switch b {
	case pattern.BiasBullish:
		return core.DirectionLong, true
	case pattern.BiasBearish:
		return core.DirectionShort, true
	}
	return "", false
}
