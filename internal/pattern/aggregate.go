package pattern

import "github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"

// AggregateCandles folds n consecutive base candles into one higher-timeframe
// candle. A trailing partial group is kept so the latest price action is not
// discarded. Used by the multi-timeframe bias filter.
func AggregateCandles(candles []core.Candle, n int) []core.Candle {
	if n <= 1 || len(candles) == 0 {
		return candles
	}

	out := make([]core.Candle, 0, len(candles)/n+1)
	for start := 0; start < len(candles); start += n {
		end := start + n
		if end > len(candles) {
			end = len(candles)
		}
		group := candles[start:end]

		agg := core.Candle{
			Time: group[0].Time,
			Open: group[0].Open,
			High: group[0].High,
			Low:  group[0].Low,
		}
		for _, c := range group {
			if c.High > agg.High {
				agg.High = c.High
			}
			if c.Low < agg.Low {
				agg.Low = c.Low
			}
			agg.Volume += c.Volume
		}
		agg.Close = group[len(group)-1].Close
		out = append(out, agg)
	}
	return out
}

// BiasFromCandles computes a coarse swing bias from a candle series: higher
// highs with higher lows lean bullish, lower highs with lower lows lean
// bearish, anything mixed is neutral. lookback bounds how many bars are
// compared; fewer than four bars is a warm-up state and reads neutral.
func BiasFromCandles(candles []core.Candle, lookback int) Bias {
	if lookback > 0 && len(candles) > lookback {
		candles = candles[len(candles)-lookback:]
	}
	if len(candles) < 4 {
		return BiasNeutral
	}

	half := len(candles) / 2
	firstHigh, firstLow := extremes(candles[:half])
	lastHigh, lastLow := extremes(candles[half:])

	switch {
	case lastHigh > firstHigh && lastLow > firstLow:
		return BiasBullish
	case lastHigh < firstHigh && lastLow < firstLow:
		return BiasBearish
	}
	return BiasNeutral
}

func extremes(candles []core.Candle) (high, low float64) {
	high = candles[0].High
	low = candles[0].Low
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high, low
}
