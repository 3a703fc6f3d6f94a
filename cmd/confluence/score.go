package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/logger"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/scoring"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/strategy"
)

var (
	scoreCandles     string
	scoreAnnotations string
	scoreIndex       int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one bar and print the decision with its factor breakdown",
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreCandles, "candles", "", "candle series CSV")
	scoreCmd.Flags().StringVar(&scoreAnnotations, "annotations", "",
		"precomputed pattern annotations (JSON)")
	scoreCmd.Flags().IntVar(&scoreIndex, "index", -1,
		"bar index to evaluate (default: last bar)")
	_ = scoreCmd.MarkFlagRequired("candles")
	_ = scoreCmd.MarkFlagRequired("annotations")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.Must(debug)
	defer log.Sync()

	candles, err := loadCandlesCSV(scoreCandles)
	if err != nil {
		return err
	}
	bars, err := loadAnnotations(scoreAnnotations)
	if err != nil {
		return err
	}

	index := scoreIndex
	if index < 0 {
		index = len(candles) - 1
	}
	if index >= len(candles) {
		return fmt.Errorf("index %d out of range (%d candles)", index, len(candles))
	}

	scorer := scoring.NewScorer(cfg.Scoring,
		pattern.NewSliceProvider(bars), strategy.DefaultRegistry(log), log, nil)
	decision, err := scorer.Evaluate(candles, index)
	if err != nil {
		return err
	}

	fmt.Printf("Bar %d (%s): %s\n",
		index, candles[index].Time.Format("2006-01-02 15:04"), decision.Action)
	if decision.Action == scoring.ActionWait {
		fmt.Printf("Reason: %s\n", decision.Reason)
		return nil
	}

	sig := decision.Signal
	fmt.Printf("Strategy:  %s (%s)\n", sig.Signal.Strategy, sig.Signal.Direction)
	fmt.Printf("Entry:     %.4f  stop=%.4f  tp=%.4f  rr=%.2f\n",
		sig.Signal.Entry, sig.Signal.StopLoss, sig.Signal.TakeProfit, sig.Signal.RiskReward)
	fmt.Printf("Score:     %.4f (threshold %.4f)\n", sig.TotalScore, cfg.Scoring.Threshold)

	fmt.Println("Breakdown:")
	for _, name := range config.FactorNames {
		fmt.Printf("  %-18s %+.4f\n", name, sig.Breakdown[name])
	}
	return nil
}
