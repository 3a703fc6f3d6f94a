package backtest

import (
	"go.uber.org/zap"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/metrics"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/scoring"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/strategy"
)

// DefaultRunner wires the confluence scorer and the trade simulator into the
// Runner seam. Each window gets a fresh scorer, so cooldown state never
// leaks between windows. One position at a time: bars inside an open trade
// are not re-evaluated. A position still open at the window edge is
// force-closed at the last validation candle.
func DefaultRunner(cfg *config.Config, provider pattern.Provider, registry *strategy.Registry, logger *zap.Logger, reg *metrics.Registry) Runner {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(train, val []core.Candle, meta SymbolMeta) ([]core.TradeResult, error) {
		combined := make([]core.Candle, 0, len(train)+len(val))
		combined = append(combined, train...)
		combined = append(combined, val...)

		scorer := scoring.NewScorer(cfg.Scoring, provider, registry, logger, reg)
		sim := NewSimulator(cfg.Simulator)

		var trades []core.TradeResult
		for i := len(train); i < len(combined); {
			decision, err := scorer.Evaluate(combined, i)
			if err != nil {
				return nil, err
			}
			if decision.Action != scoring.ActionTrade {
				i++
				continue
			}

			trade, exitIndex := sim.RunForced(decision.Signal.Signal, combined, i)
			if trade == nil {
				// Entry on the very last candle has nothing to walk.
				i++
				continue
			}
			trades = append(trades, *trade)
			i = exitIndex + 1
		}
		return trades, nil
	}
}
