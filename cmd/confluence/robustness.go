package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/backtest"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/logger"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/metrics"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/robustness"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/strategy"
)

var (
	robCandles     []string
	robAnnotations string
	robVariants    int
)

var robustnessCmd = &cobra.Command{
	Use:   "robustness",
	Short: "Run the walk-forward harness plus the full robustness suite",
	Long: `robustness runs the walk-forward harness to establish a baseline,
then stresses it: bootstrap and permutation resampling of the pooled trades,
random trade skipping, joint parameter perturbation with full harness reruns,
PBO over jittered parameter variants, and the deflated Sharpe ratio.`,
	RunE: runRobustness,
}

func init() {
	robustnessCmd.Flags().StringArrayVar(&robCandles, "candles", nil,
		"candle series as SYMBOL=path.csv (repeatable)")
	robustnessCmd.Flags().StringVar(&robAnnotations, "annotations", "",
		"precomputed pattern annotations (JSON)")
	robustnessCmd.Flags().IntVar(&robVariants, "variants", 16,
		"jittered parameter variants for the PBO check")
	_ = robustnessCmd.MarkFlagRequired("candles")
	_ = robustnessCmd.MarkFlagRequired("annotations")

	rootCmd.AddCommand(robustnessCmd)
}

func runRobustness(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Must(debug)
	defer log.Sync()

	series, _, err := loadSeries(robCandles)
	if err != nil {
		return err
	}
	bars, err := loadAnnotations(robAnnotations)
	if err != nil {
		return err
	}

	provider := pattern.NewSliceProvider(bars)
	registry := strategy.DefaultRegistry(log)
	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}
	ctx := context.Background()

	// Every rerun rebuilds its harness from the candidate config, so
	// perturbed scoring and simulator parameters all take effect.
	runHarness := func(c *config.Config) (*backtest.Report, error) {
		runner := backtest.DefaultRunner(c, provider, registry, log, reg)
		return backtest.NewHarness(c.WalkForward, runner, log, reg).Run(ctx, series)
	}

	baseline, err := runHarness(cfg)
	if err != nil {
		return err
	}
	log.Info("baseline harness complete",
		zap.Int("trades", len(baseline.PooledTrades)),
		zap.Float64("pass_rate", baseline.PassRate),
	)

	suite := robustness.NewSuite(cfg.Robustness, cfg.WalkForward.BarInterval, log, reg)

	report, err := suite.Run(ctx, baseline.PooledTrades)
	if err != nil {
		return err
	}
	printResampling(report)

	perturb, err := suite.Perturb(ctx, cfg, baseline, runHarness)
	if err != nil {
		return err
	}
	printPerturbation(perturb)

	variants := suite.Variants(cfg, robVariants)
	matrix, trialSharpes, err := variantMatrix(variants, runHarness, log)
	if err != nil {
		return err
	}
	pbo, err := suite.PBO(matrix)
	if err != nil {
		log.Warn("pbo check skipped", zap.Error(err))
	} else {
		printPBO(pbo)
	}

	dsr, err := suite.DeflatedSharpe(backtest.Returns(baseline.PooledTrades), trialSharpes)
	if err != nil {
		log.Warn("deflated sharpe skipped", zap.Error(err))
	} else {
		printDSR(dsr)
	}
	return nil
}

// variantMatrix reruns the harness for each parameter variant and collects
// the per-window Sharpe matrix for PBO plus each variant's pooled per-trade
// Sharpe for deflation. Variants that fail or whose window layout diverges
// from variant 0's are dropped.
func variantMatrix(variants []*config.Config, run func(*config.Config) (*backtest.Report, error), log *zap.Logger) ([][]float64, []float64, error) {
	var matrix [][]float64
	var trialSharpes []float64
	windows := -1

	for i, v := range variants {
		report, err := run(v)
		if err != nil {
			log.Warn("variant run failed", zap.Int("variant", i), zap.Error(err))
			continue
		}

		row := make([]float64, 0, len(report.Windows))
		for _, w := range report.Windows {
			row = append(row, w.Sharpe)
		}
		if windows == -1 {
			windows = len(row)
		}
		if len(row) != windows {
			log.Warn("variant dropped: window layout diverged",
				zap.Int("variant", i),
				zap.Int("windows", len(row)),
				zap.Int("expected", windows),
			)
			continue
		}

		matrix = append(matrix, row)
		returns := backtest.Returns(report.PooledTrades)
		if len(returns) >= 2 {
			trialSharpes = append(trialSharpes, backtest.Sharpe(returns, 1))
		}
	}
	return matrix, trialSharpes, nil
}

func printDist(name string, d robustness.Distribution) {
	fmt.Printf("  %-14s mean=%+.4f std=%.4f  p5=%+.4f p50=%+.4f p95=%+.4f\n",
		name, d.Mean, d.Std, d.P5, d.P50, d.P95)
}

func printResampling(r *robustness.Report) {
	fmt.Printf("=== Robustness Suite (%d trades) ===\n", r.TradeCount)

	fmt.Printf("\nBootstrap (%d iterations):\n", r.Bootstrap.Iterations)
	printDist("sharpe", r.Bootstrap.Metrics.Sharpe)
	printDist("max_drawdown", r.Bootstrap.Metrics.MaxDrawdown)
	printDist("compound_pnl", r.Bootstrap.Metrics.CompoundPnL)
	printDist("win_rate", r.Bootstrap.Metrics.WinRate)

	fmt.Printf("\nReshuffle (%d iterations):\n", r.Reshuffle.Iterations)
	fmt.Printf("  real max drawdown %.4f, null z=%.2f, p=%.3f\n",
		r.Reshuffle.RealMaxDrawdown, r.Reshuffle.MaxDrawdownZ, r.Reshuffle.MaxDrawdownP)
	printDist("max_drawdown", r.Reshuffle.Metrics.MaxDrawdown)

	fmt.Printf("\nSkip trades (p=%.2f, %d iterations):\n",
		r.SkipTrades.SkipProbability, r.SkipTrades.Iterations)
	fmt.Printf("  profitable fraction %.3f\n", r.SkipTrades.ProfitableFraction)
	printDist("compound_pnl", r.SkipTrades.Metrics.CompoundPnL)
}

func printPerturbation(p *robustness.PerturbationResult) {
	fmt.Printf("\nParameter perturbation (%d reruns, %d failed):\n", p.Perturbations, p.Failures)
	fmt.Printf("  baseline pass rate %.3f, fragility score %.3f\n",
		p.BaselinePassRate, p.FragilityScore)
	printDist("pass_rate", p.PassRates)
	printDist("mean_sharpe", p.SharpeMeans)
}

func printPBO(p *robustness.PBOResult) {
	fmt.Printf("\nPBO (%d variants, %d windows, %d splits):\n", p.Variants, p.Windows, p.Splits)
	fmt.Printf("  pbo=%.3f mean_logit=%+.3f\n", p.PBO, p.MeanLogit)
}

func printDSR(d *robustness.DSRResult) {
	fmt.Printf("\nDeflated Sharpe (per-trade, %d trials):\n", d.Trials)
	fmt.Printf("  observed=%.4f expected_max=%.4f haircut=%+.4f probability=%.3f\n",
		d.ObservedSharpe, d.ExpectedMaxSharpe, d.HaircutSharpe, d.Probability)
}
