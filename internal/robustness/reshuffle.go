package robustness

import (
	"context"
	"math/rand"
	"time"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/backtest"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

// ReshuffleResult compares the real trade sequence against an
// order-permuted null. Same trades, same individual returns; only the path
// changes, so only path-dependent statistics (max drawdown) can differ.
// A real drawdown far above the permuted distribution flags harmful
// path-dependence: losses clustering in streaks.
type ReshuffleResult struct {
	Iterations int
	Metrics    MetricDistributions

	RealMaxDrawdown float64
	// MaxDrawdownZ is the real drawdown's z-score against the permuted
	// null; MaxDrawdownP is the one-sided p-value, the fraction of
	// permutations at least as deep as the real sequence.
	MaxDrawdownZ float64
	MaxDrawdownP float64
}

// Reshuffle permutes trade order cfg.Iterations times and recomputes the
// performance metrics per permutation.
func (s *Suite) Reshuffle(ctx context.Context, trades []core.TradeResult) (*ReshuffleResult, error) {
	if err := s.checkSample(trades); err != nil {
		return nil, err
	}
	started := time.Now()

	returns := backtest.Returns(trades)
	realMaxDD := backtest.MaxDrawdown(returns)
	samples := newMetricSamples(s.cfg.Iterations)

	err := s.parallelFor(ctx, s.cfg.Iterations, func(i int) {
		rng := rand.New(rand.NewSource(s.cfg.Seed + seedReshuffle + int64(i)))

		shuffled := make([]float64, len(returns))
		copy(shuffled, returns)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		samples.sharpe[i] = backtest.Sharpe(shuffled, s.ppy)
		samples.maxDD[i] = backtest.MaxDrawdown(shuffled)
		samples.compound[i] = backtest.CompoundReturn(shuffled)
		samples.winRate[i] = backtest.WinRate(shuffled)
	})
	if err != nil {
		return nil, err
	}

	nullMean := meanOf(samples.maxDD)
	nullStd := stdOf(samples.maxDD)
	z := 0.0
	if nullStd > 0 {
		z = (realMaxDD - nullMean) / nullStd
	}
	atLeastAsDeep := 0
	for _, dd := range samples.maxDD {
		if dd >= realMaxDD {
			atLeastAsDeep++
		}
	}

	s.observe("reshuffle", started, s.cfg.Iterations)
	return &ReshuffleResult{
		Iterations:      s.cfg.Iterations,
		Metrics:         samples.distributions(),
		RealMaxDrawdown: realMaxDD,
		MaxDrawdownZ:    z,
		MaxDrawdownP:    float64(atLeastAsDeep) / float64(s.cfg.Iterations),
	}, nil
}
