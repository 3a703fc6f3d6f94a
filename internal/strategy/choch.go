package strategy

import (
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
)

// CHoCHReversal proposes an entry after a change of character, trading the
// new direction against the prior bias. The signal is marked Reversal so the
// scorer exempts it from the structure-alignment hard filter: the CHoCH
// event itself is the validating structure.
type CHoCHReversal struct {
	targetRR      float64
	recentBars    int
	minConfidence float64
	stopLookback  int
}

// NewCHoCHReversal creates the generator with tuned defaults.
func NewCHoCHReversal() *CHoCHReversal {
	return &CHoCHReversal{
		targetRR:      2.0,
		recentBars:    10,
		minConfidence: 0.5,
		stopLookback:  8,
	}
}

func (g *CHoCHReversal) Name() string { return NameCHoCHReversal }

func (g *CHoCHReversal) DetectEntry(candles []core.Candle, index int, snap pattern.Snapshot) *core.StrategySignal {
	if index < minBars || index >= len(candles) {
		return nil
	}

	// Only the latest break counts; an older CHoCH that has since been
	// followed by more structure is no longer a fresh reversal.
	last := snap.Structure.LastBreak()
	if last == nil || last.Type != pattern.BreakCHoCH {
		return nil
	}
	if last.Index >= index || index-last.Index > g.recentBars {
		return nil
	}
	if last.Confidence < g.minConfidence {
		return nil
	}

	brIdx := len(snap.Structure.Breaks) - 1
	c := candles[index]
	entry := c.Close

	from := index - g.stopLookback
	swingHigh, swingLow := swingRange(candles, from, index)

	var stop float64
	if last.Direction == core.DirectionLong {
		stop = swingLow
	} else {
		stop = swingHigh
	}
	tp := entry + g.targetRR*(entry-stop)

	sig := buildSignal(g.Name(), last.Direction, entry, stop, tp)
	if sig == nil {
		return nil
	}
	sig.Reversal = true
	sig.StructureBreakRef = brIdx
	return sig
}
