package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

// Factor names used in the weights map and in ScoredSignal breakdowns.
const (
	FactorStructure    = "structure"
	FactorKillZone     = "killzone"
	FactorSweep        = "liquidity_sweep"
	FactorOrderBlock   = "ob_proximity"
	FactorFVG          = "fvg_quality"
	FactorBOS          = "recent_bos"
	FactorRiskReward   = "risk_reward"
	FactorOTE          = "ote_zone"
	FactorBreaker      = "breaker"
	FactorOBFVGConflux = "ob_fvg_confluence"
)

// FactorNames lists all scoring factors in their canonical order.
var FactorNames = []string{
	FactorStructure,
	FactorKillZone,
	FactorSweep,
	FactorOrderBlock,
	FactorFVG,
	FactorBOS,
	FactorRiskReward,
	FactorOTE,
	FactorBreaker,
	FactorOBFVGConflux,
}

type Config struct {
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Simulator   SimulatorConfig   `mapstructure:"simulator"`
	WalkForward WalkForwardConfig `mapstructure:"walkforward"`
	Robustness  RobustnessConfig  `mapstructure:"robustness"`
	Store       StoreConfig       `mapstructure:"store"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// ScoringConfig drives the confluence scoring engine. Weights and thresholds
// are empirically tuned defaults, overridable per run.
type ScoringConfig struct {
	Weights       map[string]float64 `mapstructure:"weights"`
	Threshold     float64            `mapstructure:"threshold"`
	MinRiskReward float64            `mapstructure:"min_risk_reward"`
	CooldownBars  int                `mapstructure:"cooldown_bars"`
	LookbackBars  int                `mapstructure:"lookback_bars"`
	MinBars       int                `mapstructure:"min_bars"`
	MomentumBars  int                `mapstructure:"momentum_bars"`
	Strategies    []string           `mapstructure:"strategies"`

	KillZoneFilter bool         `mapstructure:"killzone_filter"`
	Regime         RegimeConfig `mapstructure:"regime"`
	MTF            MTFConfig    `mapstructure:"mtf"`
}

// RegimeConfig controls both the continuous suppression (efficiency/trend
// floors, ATR percentile band) and the discrete label suppression list.
type RegimeConfig struct {
	Enabled            bool     `mapstructure:"enabled"`
	EfficiencyFloor    float64  `mapstructure:"efficiency_floor"`
	TrendStrengthFloor float64  `mapstructure:"trend_strength_floor"`
	ATRPercentileMin   float64  `mapstructure:"atr_percentile_min"`
	ATRPercentileMax   float64  `mapstructure:"atr_percentile_max"`
	SuppressedLabels   []string `mapstructure:"suppressed_labels"` // "trend/vol" keys
}

// MTFConfig controls the multi-timeframe bias filter.
type MTFConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	Period   int  `mapstructure:"period"`   // base candles per HTF candle
	Lookback int  `mapstructure:"lookback"` // HTF candles used for bias
}

// SimulatorConfig drives the trade simulator.
type SimulatorConfig struct {
	FrictionPerSide  float64 `mapstructure:"friction_per_side"` // commission+slippage fraction
	PartialFraction  float64 `mapstructure:"partial_fraction"`
	PartialTriggerR  float64 `mapstructure:"partial_trigger_r"`
	BreakevenBufferR float64 `mapstructure:"breakeven_buffer_r"`
	MaxHoldingBars   int     `mapstructure:"max_holding_bars"`
}

// WalkForwardConfig drives the rolling (train, validation) harness.
type WalkForwardConfig struct {
	TrainBars      int     `mapstructure:"train_bars"`
	ValidationBars int     `mapstructure:"validation_bars"`
	StepBars       int     `mapstructure:"step_bars"`
	MinSharpe      float64 `mapstructure:"min_sharpe"`
	BarInterval    string  `mapstructure:"bar_interval"`
	Workers        int     `mapstructure:"workers"`
}

// RobustnessConfig drives the Monte Carlo suite.
type RobustnessConfig struct {
	Iterations        int     `mapstructure:"iterations"`
	Seed              int64   `mapstructure:"seed"`
	MinTrades         int     `mapstructure:"min_trades"`
	SkipProbability   float64 `mapstructure:"skip_probability"`
	PerturbationSigma float64 `mapstructure:"perturbation_sigma"`
	Perturbations     int     `mapstructure:"perturbations"`
	FragilityMargin   float64 `mapstructure:"fragility_margin"`
	Trials            int     `mapstructure:"trials"` // configurations searched, for Sharpe deflation
	Workers           int     `mapstructure:"workers"`
}

type StoreConfig struct {
	MaxRuns int `mapstructure:"max_runs"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file with environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand ${VAR} references in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns the empirically tuned default configuration.
func Defaults() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Weights: map[string]float64{
				FactorStructure:    0.20,
				FactorKillZone:     0.10,
				FactorSweep:        0.10,
				FactorOrderBlock:   0.15,
				FactorFVG:          0.12,
				FactorBOS:          0.10,
				FactorRiskReward:   0.08,
				FactorOTE:          0.05,
				FactorBreaker:      0.05,
				FactorOBFVGConflux: 0.05,
			},
			Threshold:     0.55,
			MinRiskReward: 1.5,
			CooldownBars:  10,
			LookbackBars:  200,
			MinBars:       50,
			MomentumBars:  5,
			Strategies: []string{
				"orderblock_entry",
				"fvg_entry",
				"bos_continuation",
				"choch_reversal",
			},
			KillZoneFilter: false,
			Regime: RegimeConfig{
				Enabled:            true,
				EfficiencyFloor:    0.2,
				TrendStrengthFloor: 0.15,
				ATRPercentileMin:   0.05,
				ATRPercentileMax:   0.95,
				SuppressedLabels:   []string{"ranging/low"},
			},
			MTF: MTFConfig{
				Enabled:  true,
				Period:   4,
				Lookback: 20,
			},
		},
		Simulator: SimulatorConfig{
			FrictionPerSide:  0.0005,
			PartialFraction:  0.5,
			PartialTriggerR:  1.0,
			BreakevenBufferR: 0.1,
			MaxHoldingBars:   96,
		},
		WalkForward: WalkForwardConfig{
			TrainBars:      1000,
			ValidationBars: 250,
			StepBars:       250,
			MinSharpe:      0.0,
			BarInterval:    "1h",
			Workers:        4,
		},
		Robustness: RobustnessConfig{
			Iterations:        1000,
			Seed:              42,
			MinTrades:         10,
			SkipProbability:   0.3,
			PerturbationSigma: 0.1,
			Perturbations:     50,
			FragilityMargin:   0.2,
			Trials:            100,
			Workers:           4,
		},
		Store: StoreConfig{
			MaxRuns: 100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors. Out-of-range values are
// rejected here, at construction time; the one exception is perturbed
// parameters, which the robustness suite clamps to bounds by policy.
func (c *Config) Validate() error {
	for _, name := range FactorNames {
		w, ok := c.Scoring.Weights[name]
		if !ok {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("missing weight for factor %q", name))
		}
		if w < 0 || w > 1 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("weight %q must be in [0,1], got %f", name, w))
		}
	}
	for name := range c.Scoring.Weights {
		if !isKnownFactor(name) {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("unknown factor %q in weights", name))
		}
	}

	if c.Scoring.Threshold < 0 || c.Scoring.Threshold > c.Scoring.weightSum() {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("threshold must be in [0, sum of weights], got %f", c.Scoring.Threshold))
	}
	if c.Scoring.MinRiskReward <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("min_risk_reward must be positive, got %f", c.Scoring.MinRiskReward))
	}
	if c.Scoring.CooldownBars < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("cooldown_bars cannot be negative, got %d", c.Scoring.CooldownBars))
	}
	if c.Scoring.LookbackBars < c.Scoring.MinBars {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("lookback_bars (%d) cannot be smaller than min_bars (%d)",
				c.Scoring.LookbackBars, c.Scoring.MinBars))
	}
	if r := c.Scoring.Regime; r.Enabled {
		if r.ATRPercentileMin < 0 || r.ATRPercentileMax > 1 || r.ATRPercentileMin >= r.ATRPercentileMax {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("atr percentile band [%f, %f] invalid", r.ATRPercentileMin, r.ATRPercentileMax))
		}
	}
	if c.Scoring.MTF.Enabled && c.Scoring.MTF.Period < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("mtf period must be at least 2, got %d", c.Scoring.MTF.Period))
	}

	if c.Simulator.FrictionPerSide < 0 || c.Simulator.FrictionPerSide >= 0.05 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("friction_per_side must be in [0, 0.05), got %f", c.Simulator.FrictionPerSide))
	}
	if c.Simulator.PartialFraction < 0 || c.Simulator.PartialFraction >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("partial_fraction must be in [0,1), got %f", c.Simulator.PartialFraction))
	}
	if c.Simulator.PartialFraction > 0 && c.Simulator.PartialTriggerR <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("partial_trigger_r must be positive, got %f", c.Simulator.PartialTriggerR))
	}
	if c.Simulator.BreakevenBufferR < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("breakeven_buffer_r cannot be negative, got %f", c.Simulator.BreakevenBufferR))
	}
	if c.Simulator.MaxHoldingBars <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("max_holding_bars must be positive, got %d", c.Simulator.MaxHoldingBars))
	}

	if c.WalkForward.TrainBars <= 0 || c.WalkForward.ValidationBars <= 0 || c.WalkForward.StepBars <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("walkforward window sizes must be positive (train=%d val=%d step=%d)",
				c.WalkForward.TrainBars, c.WalkForward.ValidationBars, c.WalkForward.StepBars))
	}
	if PeriodsPerYear(c.WalkForward.BarInterval) <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown bar_interval %q", c.WalkForward.BarInterval))
	}

	if c.Robustness.Iterations <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("robustness iterations must be positive, got %d", c.Robustness.Iterations))
	}
	if c.Robustness.SkipProbability < 0 || c.Robustness.SkipProbability >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("skip_probability must be in [0,1), got %f", c.Robustness.SkipProbability))
	}
	if c.Robustness.PerturbationSigma < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("perturbation_sigma cannot be negative, got %f", c.Robustness.PerturbationSigma))
	}
	if c.Robustness.Trials < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("trials must be at least 1, got %d", c.Robustness.Trials))
	}

	return nil
}

func (s ScoringConfig) weightSum() float64 {
	var sum float64
	for _, w := range s.Weights {
		sum += w
	}
	return sum
}

func isKnownFactor(name string) bool {
	for _, f := range FactorNames {
		if f == name {
			return true
		}
	}
	return false
}

// PeriodsPerYear maps a bar interval to the annualization factor used for
// Sharpe scaling. Crypto markets trade around the clock, so a full calendar
// year of bars is assumed. Returns 0 for unknown intervals.
func PeriodsPerYear(interval string) float64 {
	switch interval {
	case "1m":
		return 365 * 24 * 60
	case "5m":
		return 365 * 24 * 12
	case "15m":
		return 365 * 24 * 4
	case "30m":
		return 365 * 24 * 2
	case "1h":
		return 365 * 24
	case "4h":
		return 365 * 6
	case "1d":
		return 365
	}
	return 0
}

// Clone returns a deep copy, used by the perturbation check so jittered
// variants never share the weights map with the baseline.
func (c *Config) Clone() *Config {
	out := *c
	out.Scoring.Weights = make(map[string]float64, len(c.Scoring.Weights))
	for k, v := range c.Scoring.Weights {
		out.Scoring.Weights[k] = v
	}
	out.Scoring.Strategies = append([]string(nil), c.Scoring.Strategies...)
	out.Scoring.Regime.SuppressedLabels = append([]string(nil), c.Scoring.Regime.SuppressedLabels...)
	return &out
}
