package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "confluence",
	Short: "Confluence scoring and walk-forward validation for trading signals",
	Long: `confluence scores candidate trading signals against a weighted
multi-factor rubric and validates the resulting policy with walk-forward
backtesting and an overfitting-resistance suite (bootstrap, permutation,
trade skipping, parameter fragility, PBO, deflated Sharpe).`,
}

func init() {
	// A local .env may carry environment overrides for viper.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

func loadConfig() (*config.Config, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
