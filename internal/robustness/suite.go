package robustness

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/metrics"
)

// Seed offsets keep each check on its own deterministic random stream while
// the whole suite shares one configured root seed.
const (
	seedBootstrap int64 = 1 << 32
	seedReshuffle int64 = 2 << 32
	seedSkip      int64 = 3 << 32
	seedPerturb   int64 = 4 << 32
	seedPBO       int64 = 5 << 32
)

// Suite runs the robustness checks with one shared configuration.
type Suite struct {
	cfg     config.RobustnessConfig
	ppy     float64
	logger  *zap.Logger
	metrics *metrics.Registry
}

// NewSuite creates a suite. logger and reg may be nil.
func NewSuite(cfg config.RobustnessConfig, barInterval string, logger *zap.Logger, reg *metrics.Registry) *Suite {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Suite{
		cfg:     cfg,
		ppy:     config.PeriodsPerYear(barInterval),
		logger:  logger,
		metrics: reg,
	}
}

// Report bundles the trade-resampling checks that run on a pooled trade
// list. The perturbation, PBO and deflated-Sharpe checks have their own
// entry points because they need a harness or parameter variants as input.
type Report struct {
	TradeCount int
	Bootstrap  *BootstrapResult
	Reshuffle  *ReshuffleResult
	SkipTrades *SkipTradesResult
}

// Run executes bootstrap, reshuffle and skip-trades on the pooled trades.
// Short-circuits with ErrInsufficientSample when the pool is too small for
// any of the statistics to mean anything.
func (s *Suite) Run(ctx context.Context, trades []core.TradeResult) (*Report, error) {
	if err := s.checkSample(trades); err != nil {
		return nil, err
	}

	bootstrap, err := s.Bootstrap(ctx, trades)
	if err != nil {
		return nil, err
	}
	reshuffle, err := s.Reshuffle(ctx, trades)
	if err != nil {
		return nil, err
	}
	skip, err := s.SkipTrades(ctx, trades)
	if err != nil {
		return nil, err
	}

	return &Report{
		TradeCount: len(trades),
		Bootstrap:  bootstrap,
		Reshuffle:  reshuffle,
		SkipTrades: skip,
	}, nil
}

func (s *Suite) checkSample(trades []core.TradeResult) error {
	if len(trades) < s.cfg.MinTrades {
		return core.ErrInsufficientSample
	}
	return nil
}

func (s *Suite) observe(check string, started time.Time, iterations int) {
	if s.metrics == nil {
		return
	}
	s.metrics.MonteCarloIterations(check, iterations)
	s.metrics.ObserveRobustnessDuration(check, time.Since(started).Seconds())
}

// parallelFor dispatches iterations [0, n) to a bounded worker pool and
// waits. Each iteration derives its own random source, so results do not
// depend on scheduling. Returns early with the context error if cancelled
// before dispatch completes; in-flight iterations still finish.
func (s *Suite) parallelFor(ctx context.Context, n int, fn func(i int)) error {
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
	return nil
}
