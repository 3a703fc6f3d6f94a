package backtest

import (
	"context"
	"testing"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/strategy"
)

func TestDefaultRunner_StructurelessSeriesProducesNoTrades(t *testing.T) {
	cfg := config.Defaults()
	cfg.WalkForward = harnessConfig()
	cfg.Scoring.MinBars = 5
	cfg.Scoring.LookbackBars = 15

	// No annotations: every bar reads neutral and the runner must come back
	// empty rather than erroring.
	runner := DefaultRunner(cfg, pattern.NewSliceProvider(nil), strategy.DefaultRegistry(nil), nil, nil)
	h := NewHarness(cfg.WalkForward, runner, nil, nil)

	report, err := h.Run(context.Background(), series("BTCUSDT", 30))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.PooledTrades) != 0 {
		t.Errorf("pooled trades = %d, want 0 on a structureless series", len(report.PooledTrades))
	}
	if report.SkippedWindows != 0 {
		t.Errorf("SkippedWindows = %d, want 0 (quiet windows are not errors)", report.SkippedWindows)
	}
	if report.EligibleWindows != 0 {
		t.Errorf("EligibleWindows = %d, want 0", report.EligibleWindows)
	}
}
