// Package scoring implements the confluence scoring engine: hard filters,
// regime suppression, multi-timeframe bias, ten weighted factors and
// per-strategy cooldowns. Evaluation is deterministic; "wait" is a normal
// outcome, not a fallback for an error.
package scoring

import (
	"go.uber.org/zap"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/metrics"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/strategy"
)

// Action is the outcome of one evaluation.
type Action string

const (
	ActionTrade Action = "trade"
	ActionWait  Action = "wait"
)

// WaitReason explains a wait decision for reporting.
type WaitReason string

const (
	WaitWarmup         WaitReason = "warmup"
	WaitKillZone       WaitReason = "killzone_inactive"
	WaitRegime         WaitReason = "regime_suppressed"
	WaitNoCandidates   WaitReason = "no_candidates"
	WaitBelowThreshold WaitReason = "below_threshold"
)

// Decision is the result of evaluating one bar. Signal is set only when
// Action is ActionTrade.
type Decision struct {
	Action Action
	Signal *core.ScoredSignal
	Reason WaitReason
}

// Scorer owns the cooldown state for one continuous run. It is not safe for
// concurrent use; independent harness windows each get their own instance
// (or call ResetCooldowns) so runs never contaminate each other.
type Scorer struct {
	cfg       config.ScoringConfig
	provider  pattern.Provider
	registry  *strategy.Registry
	cooldowns map[string]int // strategy name -> bar index of last selection
	logger    *zap.Logger
	metrics   *metrics.Registry
}

// NewScorer creates a scorer with empty cooldown state. logger and reg may
// be nil.
func NewScorer(cfg config.ScoringConfig, provider pattern.Provider, registry *strategy.Registry, logger *zap.Logger, reg *metrics.Registry) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		cfg:       cfg,
		provider:  provider,
		registry:  registry,
		cooldowns: make(map[string]int),
		logger:    logger,
		metrics:   reg,
	}
}

// ResetCooldowns clears cooldown state between independent runs.
func (s *Scorer) ResetCooldowns() {
	s.cooldowns = make(map[string]int)
}

// Evaluate scores candidates at candles[index] and either selects the best
// signal or waits. index is an absolute position in the caller's series;
// cooldowns are tracked in that frame.
func (s *Scorer) Evaluate(candles []core.Candle, index int) (Decision, error) {
	if index < s.cfg.MinBars || index >= len(candles) {
		return Decision{Action: ActionWait, Reason: WaitWarmup}, nil
	}

	// Bounded lookback slice keeps every pattern index local.
	start := index - s.cfg.LookbackBars + 1
	if start < 0 {
		start = 0
	}
	local := candles[start : index+1]
	li := len(local) - 1

	snap, err := s.provider.Analyze(local, li)
	if err != nil {
		return Decision{Action: ActionWait, Reason: WaitWarmup}, err
	}

	if s.cfg.KillZoneFilter && !snap.KillZone.Active {
		return Decision{Action: ActionWait, Reason: WaitKillZone}, nil
	}

	// Regime suppression runs before signal generation so quiet chop is
	// rejected without paying for the generators.
	if s.regimeSuppressed(snap.Regime) {
		return Decision{Action: ActionWait, Reason: WaitRegime}, nil
	}

	htfBias := pattern.BiasNeutral
	if s.cfg.MTF.Enabled {
		htf := pattern.AggregateCandles(local, s.cfg.MTF.Period)
		htfBias = pattern.BiasFromCandles(htf, s.cfg.MTF.Lookback)
	}

	var candidates []core.StrategySignal
	for _, gen := range s.registry.Active(s.cfg.Strategies) {
		if last, ok := s.cooldowns[gen.Name()]; ok && index-last < s.cfg.CooldownBars {
			continue
		}
		sig := gen.DetectEntry(local, li, snap)
		if sig == nil {
			continue
		}
		if !s.passesHardFilters(local, li, snap, *sig, htfBias) {
			continue
		}
		candidates = append(candidates, *sig)
	}
	if len(candidates) == 0 {
		return Decision{Action: ActionWait, Reason: WaitNoCandidates}, nil
	}

	best := s.scoreCandidate(local, li, snap, candidates[0])
	for _, sig := range candidates[1:] {
		scored := s.scoreCandidate(local, li, snap, sig)
		// Strict inequality keeps registration order as the tie-break.
		if scored.TotalScore > best.TotalScore {
			best = scored
		}
	}

	if best.TotalScore < s.cfg.Threshold {
		return Decision{Action: ActionWait, Reason: WaitBelowThreshold}, nil
	}

	if s.metrics != nil {
		s.metrics.SignalAccepted(best.Signal.Strategy)
	}
	s.cooldowns[best.Signal.Strategy] = index
	return Decision{Action: ActionTrade, Signal: &best}, nil
}

func (s *Scorer) regimeSuppressed(r pattern.RegimeLabel) bool {
	cfg := s.cfg.Regime
	if !cfg.Enabled {
		return false
	}
	if r.Efficiency < cfg.EfficiencyFloor && r.TrendStrength < cfg.TrendStrengthFloor {
		return true
	}
	if r.ATRPercentile < cfg.ATRPercentileMin || r.ATRPercentile > cfg.ATRPercentileMax {
		return true
	}
	for _, label := range cfg.SuppressedLabels {
		if r.Key() == label {
			return true
		}
	}
	return false
}

func (s *Scorer) passesHardFilters(candles []core.Candle, index int, snap pattern.Snapshot, sig core.StrategySignal, htfBias pattern.Bias) bool {
	if !sig.Valid() || sig.RiskReward < s.cfg.MinRiskReward {
		return false
	}

	// Reversal signals trade against the standing bias by definition; the
	// change-of-character event is their validating structure.
	if !sig.Reversal {
		bias := snap.Structure.Bias
		if bias != pattern.BiasNeutral && !bias.Agrees(sig.Direction) {
			return false
		}
	}

	if s.cfg.MTF.Enabled && htfBias != pattern.BiasNeutral && !htfBias.Agrees(sig.Direction) && !sig.Reversal {
		return false
	}

	if k := s.cfg.MomentumBars; k > 1 {
		if !momentumConfirms(candles, index, k, sig.Direction) {
			return false
		}
	}
	return true
}

// momentumConfirms requires the majority of the last k close-to-close moves
// to point in the signal direction.
func momentumConfirms(candles []core.Candle, index, k int, dir core.Direction) bool {
	if index < k {
		return false
	}
	inDir := 0
	for i := index - k + 1; i <= index; i++ {
		move := candles[i].Close - candles[i-1].Close
		if move*dir.Sign() > 0 {
			inDir++
		}
	}
	return inDir*2 > k
}

func (s *Scorer) scoreCandidate(candles []core.Candle, index int, snap pattern.Snapshot, sig core.StrategySignal) core.ScoredSignal {
	if s.metrics != nil {
		s.metrics.SignalScored(sig.Strategy)
	}
	values := factorValues(candles, index, snap, sig, s.cfg.MinRiskReward)

	breakdown := make(map[string]float64, len(values))
	var total float64
	for _, name := range config.FactorNames {
		contribution := s.cfg.Weights[name] * values[name]
		breakdown[name] = contribution
		total += contribution
	}

	return core.ScoredSignal{
		Signal:     sig,
		TotalScore: total,
		Breakdown:  breakdown,
	}
}
