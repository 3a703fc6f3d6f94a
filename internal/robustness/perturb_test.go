package robustness

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/backtest"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

func baselineReport(passRate float64) *backtest.Report {
	return &backtest.Report{
		PassRate: passRate,
		Windows: []core.WindowResult{
			{Eligible: true, Sharpe: 1.2},
			{Eligible: true, Sharpe: 0.8},
		},
	}
}

func TestPerturb_RerunsFullHarness(t *testing.T) {
	s := newSuite(t)
	base := config.Defaults()
	baseline := baselineReport(0.6)

	var calls int64
	run := func(cfg *config.Config) (*backtest.Report, error) {
		atomic.AddInt64(&calls, 1)
		if cfg == base {
			t.Error("perturbed runs must receive a jittered clone, not the base config")
		}
		return baselineReport(0.6), nil
	}

	result, err := s.Perturb(context.Background(), base, baseline, run)
	if err != nil {
		t.Fatalf("Perturb: %v", err)
	}
	if int(calls) != s.cfg.Perturbations {
		t.Errorf("harness reran %d times, want %d", calls, s.cfg.Perturbations)
	}
	if result.Failures != 0 {
		t.Errorf("Failures = %d, want 0", result.Failures)
	}
	// Every rerun matched the baseline, so nothing is fragile.
	if result.FragilityScore != 0 {
		t.Errorf("FragilityScore = %f, want 0", result.FragilityScore)
	}
	if result.BaselinePassRate != 0.6 {
		t.Errorf("BaselinePassRate = %f, want 0.6", result.BaselinePassRate)
	}
}

func TestPerturb_FragileConfiguration(t *testing.T) {
	s := newSuite(t)
	base := config.Defaults()
	baseline := baselineReport(0.8)

	// Every jittered neighborhood collapses well past the margin.
	run := func(cfg *config.Config) (*backtest.Report, error) {
		return baselineReport(0.1), nil
	}

	result, err := s.Perturb(context.Background(), base, baseline, run)
	if err != nil {
		t.Fatalf("Perturb: %v", err)
	}
	if result.FragilityScore != 1 {
		t.Errorf("FragilityScore = %f, want 1 when every rerun degrades", result.FragilityScore)
	}
}

func TestPerturb_FailedRunsAreCounted(t *testing.T) {
	s := newSuite(t)
	base := config.Defaults()
	boom := errors.New("no data in window")

	run := func(cfg *config.Config) (*backtest.Report, error) {
		return nil, boom
	}

	result, err := s.Perturb(context.Background(), base, baselineReport(0.5), run)
	if err != nil {
		t.Fatalf("a failing rerun must not abort the check: %v", err)
	}
	if result.Failures != s.cfg.Perturbations {
		t.Errorf("Failures = %d, want %d", result.Failures, s.cfg.Perturbations)
	}
	if result.FragilityScore != 0 {
		t.Errorf("FragilityScore = %f, want 0 with no successful reruns", result.FragilityScore)
	}
}

func TestPerturb_Deterministic(t *testing.T) {
	base := config.Defaults()
	baseline := baselineReport(0.6)

	// Pass rate derived from the jittered threshold: identical seeds must
	// produce identical jitter and therefore identical distributions.
	run := func(cfg *config.Config) (*backtest.Report, error) {
		return baselineReport(cfg.Scoring.Threshold), nil
	}

	a, err := newSuite(t).Perturb(context.Background(), base, baseline, run)
	if err != nil {
		t.Fatalf("Perturb: %v", err)
	}
	b, err := newSuite(t).Perturb(context.Background(), base, baseline, run)
	if err != nil {
		t.Fatalf("Perturb: %v", err)
	}
	if a.PassRates != b.PassRates {
		t.Errorf("same seed produced different pass-rate distributions:\n%+v\n%+v",
			a.PassRates, b.PassRates)
	}
}

func TestJitterConfig_RespectsBounds(t *testing.T) {
	base := config.Defaults()
	s := newSuite(t)

	for _, cfg := range s.Variants(base, 20)[1:] {
		for name, w := range cfg.Scoring.Weights {
			if w < 0 || w > 1 {
				t.Errorf("weight %s = %f escaped [0,1]", name, w)
			}
		}
		if cfg.Simulator.FrictionPerSide < 0 || cfg.Simulator.FrictionPerSide >= 0.05 {
			t.Errorf("friction = %f escaped [0, 0.05)", cfg.Simulator.FrictionPerSide)
		}
		if cfg.Simulator.PartialFraction < 0 || cfg.Simulator.PartialFraction >= 1 {
			t.Errorf("partial fraction = %f escaped [0, 1)", cfg.Simulator.PartialFraction)
		}
		if r := cfg.Scoring.Regime; r.Enabled && r.ATRPercentileMin >= r.ATRPercentileMax {
			t.Errorf("ATR band inverted: [%f, %f]", r.ATRPercentileMin, r.ATRPercentileMax)
		}
	}
}
