package backtest

import (
	"math"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

// Simulator advances an accepted signal bar-by-bar through subsequent
// candles: entry friction, OHLC stop/target touches, one optional partial
// take-profit with a breakeven stop ratchet, and a time-based exit.
// Simulation is a pure function of (signal, candles, config); running the
// same inputs twice yields the same TradeResult.
type Simulator struct {
	cfg config.SimulatorConfig
}

// NewSimulator creates a simulator.
func NewSimulator(cfg config.SimulatorConfig) *Simulator {
	return &Simulator{cfg: cfg}
}

// Run simulates the signal entered at candles[entryIndex], walking forward
// from the next bar. It returns the resolved trade and the exit bar index,
// or (nil, -1) if the position is still open when the candle horizon ends;
// truncating or force-closing at the horizon is the caller's call.
func (s *Simulator) Run(sig core.StrategySignal, candles []core.Candle, entryIndex int) (*core.TradeResult, int) {
	return s.simulate(sig, candles, entryIndex, false)
}

// RunForced is Run with the horizon edge closed out: a position still open
// at the last supplied candle exits at that bar's close.
func (s *Simulator) RunForced(sig core.StrategySignal, candles []core.Candle, entryIndex int) (*core.TradeResult, int) {
	return s.simulate(sig, candles, entryIndex, true)
}

func (s *Simulator) simulate(sig core.StrategySignal, candles []core.Candle, entryIndex int, force bool) (*core.TradeResult, int) {
	if entryIndex < 0 || entryIndex >= len(candles) {
		return nil, -1
	}

	sign := sig.Direction.Sign()
	f := s.cfg.FrictionPerSide

	// Friction moves both fills against the trader.
	entry := sig.Entry * (1 + f*sign)
	risk := sig.Risk()
	if risk <= 0 || entry <= 0 {
		return nil, -1
	}

	stop := sig.StopLoss
	partialDone := false
	var partialPnL float64

	for i := entryIndex + 1; i < len(candles); i++ {
		c := candles[i]

		stopHit := (sign > 0 && c.Low <= stop) || (sign < 0 && c.High >= stop)
		tpHit := (sign > 0 && c.High >= sig.TakeProfit) || (sign < 0 && c.Low <= sig.TakeProfit)

		// Same-bar stop and target resolves to the stop. OHLC bars do not
		// say which side was touched first; this conservative tie-break is
		// part of the simulator's contract and every historical result
		// depends on it. Do not "fix" it.
		if stopHit {
			return s.finalize(sig, candles, entryIndex, i, entry, stop, core.ExitStopLoss, partialDone, partialPnL), i
		}
		if tpHit {
			return s.finalize(sig, candles, entryIndex, i, entry, sig.TakeProfit, core.ExitTakeProfit, partialDone, partialPnL), i
		}

		if !partialDone && s.cfg.PartialFraction > 0 {
			unrealizedR := (c.Close - entry) * sign / risk
			if unrealizedR >= s.cfg.PartialTriggerR {
				partialDone = true
				fill := c.Close * (1 - f*sign)
				gain := (fill - entry) * sign // per-unit, >= 0 at trigger
				partialPnL = gain / entry

				// The remainder's breakeven sits where giving back the
				// banked partial profit nets the whole trade to zero; the
				// buffer keeps the ratcheted stop a little beyond it. The
				// stop only ever tightens.
				frac := s.cfg.PartialFraction
				bePrice := entry - sign*gain*frac/(1-frac)
				newStop := bePrice + sign*s.cfg.BreakevenBufferR*risk
				if (sign > 0 && newStop > stop) || (sign < 0 && newStop < stop) {
					stop = newStop
				}
			}
		}

		if i-entryIndex >= s.cfg.MaxHoldingBars {
			return s.finalize(sig, candles, entryIndex, i, entry, c.Close, core.ExitTime, partialDone, partialPnL), i
		}
	}

	if force {
		last := len(candles) - 1
		if last <= entryIndex {
			return nil, -1
		}
		return s.finalize(sig, candles, entryIndex, last, entry, candles[last].Close, core.ExitForced, partialDone, partialPnL), last
	}
	return nil, -1
}

func (s *Simulator) finalize(sig core.StrategySignal, candles []core.Candle, entryIndex, exitIndex int, entry, exitRaw float64, reason string, partialDone bool, partialPnL float64) *core.TradeResult {
	sign := sig.Direction.Sign()
	fill := exitRaw * (1 - s.cfg.FrictionPerSide*sign)
	remainderPnL := (fill - entry) * sign / entry

	pnl := remainderPnL
	if partialDone {
		frac := s.cfg.PartialFraction
		pnl = frac*partialPnL + (1-frac)*remainderPnL
	}
	if math.IsNaN(pnl) || math.IsInf(pnl, 0) {
		pnl = 0
	}

	return &core.TradeResult{
		Strategy:   sig.Strategy,
		Direction:  sig.Direction,
		EntryTime:  candles[entryIndex].Time,
		ExitTime:   candles[exitIndex].Time,
		EntryPrice: entry,
		ExitPrice:  fill,
		PnL:        pnl,
		ExitReason: reason,
		Partial:    partialDone,
	}
}
