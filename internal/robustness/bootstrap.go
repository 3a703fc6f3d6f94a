package robustness

import (
	"context"
	"math/rand"
	"time"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/backtest"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

// BootstrapResult holds the resampled performance distributions: a
// confidence interval on every metric without a normality assumption.
type BootstrapResult struct {
	Iterations int
	Metrics    MetricDistributions
}

// Bootstrap resamples the trade list with replacement cfg.Iterations times
// and recomputes the four performance metrics per resample.
func (s *Suite) Bootstrap(ctx context.Context, trades []core.TradeResult) (*BootstrapResult, error) {
	if err := s.checkSample(trades); err != nil {
		return nil, err
	}
	started := time.Now()

	returns := backtest.Returns(trades)
	n := len(returns)
	samples := newMetricSamples(s.cfg.Iterations)

	err := s.parallelFor(ctx, s.cfg.Iterations, func(i int) {
		rng := rand.New(rand.NewSource(s.cfg.Seed + seedBootstrap + int64(i)))

		resampled := make([]float64, n)
		for j := range resampled {
			resampled[j] = returns[rng.Intn(n)]
		}

		samples.sharpe[i] = backtest.Sharpe(resampled, s.ppy)
		samples.maxDD[i] = backtest.MaxDrawdown(resampled)
		samples.compound[i] = backtest.CompoundReturn(resampled)
		samples.winRate[i] = backtest.WinRate(resampled)
	})
	if err != nil {
		return nil, err
	}

	s.observe("bootstrap", started, s.cfg.Iterations)
	return &BootstrapResult{
		Iterations: s.cfg.Iterations,
		Metrics:    samples.distributions(),
	}, nil
}
