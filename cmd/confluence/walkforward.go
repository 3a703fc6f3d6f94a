package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/backtest"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/logger"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/metrics"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/store"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/strategy"
)

var (
	wfCandles     []string
	wfAnnotations string
)

var walkforwardCmd = &cobra.Command{
	Use:   "walkforward",
	Short: "Run the walk-forward validation harness",
	RunE:  runWalkforward,
}

func init() {
	walkforwardCmd.Flags().StringArrayVar(&wfCandles, "candles", nil,
		"candle series as SYMBOL=path.csv (repeatable)")
	walkforwardCmd.Flags().StringVar(&wfAnnotations, "annotations", "",
		"precomputed pattern annotations (JSON)")
	_ = walkforwardCmd.MarkFlagRequired("candles")
	_ = walkforwardCmd.MarkFlagRequired("annotations")

	rootCmd.AddCommand(walkforwardCmd)
}

func runWalkforward(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Must(debug)
	defer log.Sync()

	series, symbols, err := loadSeries(wfCandles)
	if err != nil {
		return err
	}
	bars, err := loadAnnotations(wfAnnotations)
	if err != nil {
		return err
	}

	provider := pattern.NewSliceProvider(bars)
	registry := strategy.DefaultRegistry(log)
	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	runner := backtest.DefaultRunner(cfg, provider, registry, log, reg)
	harness := backtest.NewHarness(cfg.WalkForward, runner, log, reg)

	report, err := harness.Run(context.Background(), series)
	if err != nil {
		return err
	}

	runs := store.NewMemoryStore(cfg.Store.MaxRuns)
	rec := runs.Save(cfg, symbols, report)

	printReport(report)
	fmt.Printf("\nRun ID: %s\n", rec.ID)
	return nil
}

func loadSeries(flagValues []string) (map[string][]core.Candle, []string, error) {
	paths, err := parseSymbolPaths(flagValues)
	if err != nil {
		return nil, nil, err
	}
	series := make(map[string][]core.Candle, len(paths))
	symbols := make([]string, 0, len(paths))
	for sym, path := range paths {
		candles, err := loadCandlesCSV(path)
		if err != nil {
			return nil, nil, fmt.Errorf("loading %s: %w", sym, err)
		}
		series[sym] = candles
		symbols = append(symbols, sym)
	}
	return series, symbols, nil
}

func printReport(report *backtest.Report) {
	fmt.Println("=== Walk-Forward Report ===")
	fmt.Printf("Windows:   %d total, %d eligible, %d passed, %d skipped\n",
		report.TotalWindows, report.EligibleWindows, report.PassedWindows, report.SkippedWindows)
	fmt.Printf("Pass rate: %.1f%% of eligible windows\n", report.PassRate*100)
	fmt.Printf("Trades:    %d pooled\n", len(report.PooledTrades))

	fmt.Println("\nPer symbol:")
	for _, s := range report.Symbols {
		fmt.Printf("  %-12s windows=%d eligible=%d passed=%d skipped=%d trades=%d\n",
			s.Symbol, s.Windows, s.Eligible, s.Passed, s.Skipped, s.Trades)
	}

	if len(report.Windows) > 0 {
		fmt.Println("\nWindows:")
		for _, w := range report.Windows {
			status := "ineligible"
			if w.Passed {
				status = "passed"
			} else if w.Eligible {
				status = "failed"
			}
			fmt.Printf("  %s #%d  %s -> %s  trades=%d winrate=%.2f sharpe=%.2f maxdd=%.2f%% pnl=%.2f%%  [%s]\n",
				w.Symbol, w.Index,
				w.ValStart.Format("2006-01-02"), w.ValEnd.Format("2006-01-02"),
				w.TradeCount, w.WinRate, w.Sharpe, w.MaxDrawdown*100, w.TotalPnL*100, status)
		}
	}
}
