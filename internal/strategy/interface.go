// Package strategy holds the pluggable entry-signal generators and their
// registry. Each generator inspects the pattern-library snapshot at one bar
// and proposes at most one candidate entry; the scoring engine decides what
// to do with it.
package strategy

import (
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
)

// Canonical generator names, used for registration, config selection and
// cooldown bookkeeping.
const (
	NameOrderBlockEntry = "orderblock_entry"
	NameFVGEntry        = "fvg_entry"
	NameBOSContinuation = "bos_continuation"
	NameCHoCHReversal   = "choch_reversal"
)

// Generator proposes at most one candidate entry per bar. A nil return means
// no setup at this bar, including during warm-up when there is too little
// history; generators never error.
type Generator interface {
	Name() string
	DetectEntry(candles []core.Candle, index int, snap pattern.Snapshot) *core.StrategySignal
}

// minBars is the shared warm-up floor below which no generator proposes.
const minBars = 10
