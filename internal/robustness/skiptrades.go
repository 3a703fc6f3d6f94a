package robustness

import (
	"context"
	"math/rand"
	"time"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/backtest"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

// SkipTradesResult measures how much of the edge survives missing trades.
// A strategy whose profitability collapses at a moderate skip probability
// has its edge concentrated in a handful of trades.
type SkipTradesResult struct {
	Iterations      int
	SkipProbability float64
	Metrics         MetricDistributions

	// ProfitableFraction is the share of iterations whose surviving trades
	// still compound to a net profit.
	ProfitableFraction float64
}

// SkipTrades independently drops each trade with the configured probability,
// cfg.Iterations times, and recomputes the performance metrics on the
// survivors.
func (s *Suite) SkipTrades(ctx context.Context, trades []core.TradeResult) (*SkipTradesResult, error) {
	if err := s.checkSample(trades); err != nil {
		return nil, err
	}
	started := time.Now()

	returns := backtest.Returns(trades)
	p := s.cfg.SkipProbability
	samples := newMetricSamples(s.cfg.Iterations)
	profitable := make([]bool, s.cfg.Iterations)

	err := s.parallelFor(ctx, s.cfg.Iterations, func(i int) {
		rng := rand.New(rand.NewSource(s.cfg.Seed + seedSkip + int64(i)))

		kept := make([]float64, 0, len(returns))
		for _, r := range returns {
			if rng.Float64() >= p {
				kept = append(kept, r)
			}
		}

		compound := backtest.CompoundReturn(kept)
		samples.sharpe[i] = backtest.Sharpe(kept, s.ppy)
		samples.maxDD[i] = backtest.MaxDrawdown(kept)
		samples.compound[i] = compound
		samples.winRate[i] = backtest.WinRate(kept)
		profitable[i] = compound > 0
	})
	if err != nil {
		return nil, err
	}

	count := 0
	for _, ok := range profitable {
		if ok {
			count++
		}
	}

	s.observe("skip_trades", started, s.cfg.Iterations)
	return &SkipTradesResult{
		Iterations:         s.cfg.Iterations,
		SkipProbability:    p,
		Metrics:            samples.distributions(),
		ProfitableFraction: float64(count) / float64(s.cfg.Iterations),
	}, nil
}
