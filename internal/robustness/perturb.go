package robustness

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/backtest"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
)

// HarnessFunc reruns the full walk-forward harness under one configuration.
// The perturbation check injects it so the suite stays decoupled from
// harness construction and data loading.
type HarnessFunc func(cfg *config.Config) (*backtest.Report, error)

// PerturbationResult holds the fragility analysis: the pass-rate
// distribution under jittered parameters, and the fraction of perturbations
// that degrade the pass rate by more than the configured margin.
type PerturbationResult struct {
	Perturbations    int
	BaselinePassRate float64
	PassRates        Distribution
	SharpeMeans      Distribution
	FragilityScore   float64
	Failures         int
}

// Perturb jointly jitters all tunable parameters with Gaussian noise and
// reruns the entire harness under each perturbed configuration. This is
// deliberately not a trade-resampling shortcut: parameter sensitivity only
// shows up when the scorer actually re-decides every bar.
func (s *Suite) Perturb(ctx context.Context, base *config.Config, baseline *backtest.Report, run HarnessFunc) (*PerturbationResult, error) {
	started := time.Now()
	n := s.cfg.Perturbations
	if n < 1 {
		n = 1
	}

	passRates := make([]float64, n)
	sharpeMeans := make([]float64, n)
	failed := make([]bool, n)

	err := s.parallelFor(ctx, n, func(i int) {
		rng := rand.New(rand.NewSource(s.cfg.Seed + seedPerturb + int64(i)))
		cfg := jitterConfig(base, rng, s.cfg.PerturbationSigma)

		report, err := run(cfg)
		if err != nil {
			s.logger.Warn("perturbed run failed", zap.Int("perturbation", i), zap.Error(err))
			failed[i] = true
			return
		}
		passRates[i] = report.PassRate
		sharpeMeans[i] = meanWindowSharpe(report)
	})
	if err != nil {
		return nil, err
	}

	var okRates, okSharpes []float64
	failures := 0
	fragile := 0
	for i := 0; i < n; i++ {
		if failed[i] {
			failures++
			continue
		}
		okRates = append(okRates, passRates[i])
		okSharpes = append(okSharpes, sharpeMeans[i])
		if passRates[i] < baseline.PassRate-s.cfg.FragilityMargin {
			fragile++
		}
	}

	result := &PerturbationResult{
		Perturbations:    n,
		BaselinePassRate: baseline.PassRate,
		PassRates:        summarize(okRates),
		SharpeMeans:      summarize(okSharpes),
		Failures:         failures,
	}
	if len(okRates) > 0 {
		result.FragilityScore = float64(fragile) / float64(len(okRates))
	}

	s.observe("perturbation", started, n)
	return result, nil
}

// Variants builds n jittered copies of the base configuration for the PBO
// check. Variant 0 is always the unmodified base so the searched set contains
// the configuration actually deployed.
func (s *Suite) Variants(base *config.Config, n int) []*config.Config {
	if n < 2 {
		n = 2
	}
	out := make([]*config.Config, n)
	out[0] = base.Clone()
	for i := 1; i < n; i++ {
		rng := rand.New(rand.NewSource(s.cfg.Seed + seedPBO + int64(i)))
		out[i] = jitterConfig(base, rng, s.cfg.PerturbationSigma)
	}
	return out
}

func meanWindowSharpe(report *backtest.Report) float64 {
	var sharpes []float64
	for _, w := range report.Windows {
		if w.Eligible {
			sharpes = append(sharpes, w.Sharpe)
		}
	}
	return meanOf(sharpes)
}

// jitterConfig applies relative Gaussian noise to every tunable parameter.
// Construction-time validation rejects out-of-range values, but perturbed
// parameters are clamped to bounds instead: the point is to probe the
// neighborhood of the configuration, not to error out of it.
func jitterConfig(base *config.Config, rng *rand.Rand, sigma float64) *config.Config {
	cfg := base.Clone()

	jitter := func(v float64) float64 {
		return v * (1 + sigma*rng.NormFloat64())
	}

	weightSum := 0.0
	for name, w := range cfg.Scoring.Weights {
		jw := clamp(jitter(w), 0, 1)
		cfg.Scoring.Weights[name] = jw
		weightSum += jw
	}
	cfg.Scoring.Threshold = clamp(jitter(cfg.Scoring.Threshold), 0, weightSum)
	cfg.Scoring.MinRiskReward = clamp(jitter(cfg.Scoring.MinRiskReward), 0.1, 10)

	cfg.Simulator.FrictionPerSide = clamp(jitter(cfg.Simulator.FrictionPerSide), 0, 0.049)
	cfg.Simulator.PartialFraction = clamp(jitter(cfg.Simulator.PartialFraction), 0, 0.95)
	cfg.Simulator.PartialTriggerR = clamp(jitter(cfg.Simulator.PartialTriggerR), 0.1, 10)
	cfg.Simulator.BreakevenBufferR = clamp(jitter(cfg.Simulator.BreakevenBufferR), 0, 1)

	if r := &cfg.Scoring.Regime; r.Enabled {
		r.EfficiencyFloor = clamp(jitter(r.EfficiencyFloor), 0, 1)
		r.TrendStrengthFloor = clamp(jitter(r.TrendStrengthFloor), 0, 1)
		r.ATRPercentileMin = clamp(jitter(r.ATRPercentileMin), 0, 0.49)
		r.ATRPercentileMax = clamp(jitter(r.ATRPercentileMax), r.ATRPercentileMin+0.01, 1)
	}

	return cfg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
