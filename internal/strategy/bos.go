package strategy

import (
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
)

// BOSContinuation proposes an entry on a pullback after a recent break of
// structure, trading in the break's direction. The pullback must have given
// back part of the post-break swing without retracing all of it.
type BOSContinuation struct {
	targetRR   float64
	recentBars int
	minRetrace float64
	maxRetrace float64
}

// NewBOSContinuation creates the generator with tuned defaults.
func NewBOSContinuation() *BOSContinuation {
	return &BOSContinuation{
		targetRR:   2.0,
		recentBars: 15,
		minRetrace: 0.2,
		maxRetrace: 0.9,
	}
}

func (g *BOSContinuation) Name() string { return NameBOSContinuation }

func (g *BOSContinuation) DetectEntry(candles []core.Candle, index int, snap pattern.Snapshot) *core.StrategySignal {
	if index < minBars || index >= len(candles) {
		return nil
	}

	brIdx := -1
	for i := len(snap.Structure.Breaks) - 1; i >= 0; i-- {
		br := snap.Structure.Breaks[i]
		if br.Type != pattern.BreakBOS {
			continue
		}
		if br.Index >= index || index-br.Index > g.recentBars {
			break
		}
		brIdx = i
		break
	}
	if brIdx < 0 {
		return nil
	}
	br := snap.Structure.Breaks[brIdx]

	swingHigh, swingLow := swingRange(candles, br.Index, index)
	span := swingHigh - swingLow
	if span <= 0 {
		return nil
	}

	c := candles[index]
	entry := c.Close

	// Fractional pullback from the post-break extreme.
	var retrace float64
	if br.Direction == core.DirectionLong {
		retrace = (swingHigh - entry) / span
	} else {
		retrace = (entry - swingLow) / span
	}
	if retrace < g.minRetrace || retrace > g.maxRetrace {
		return nil
	}

	var stop float64
	if br.Direction == core.DirectionLong {
		stop = swingLow
	} else {
		stop = swingHigh
	}
	tp := entry + g.targetRR*(entry-stop)

	sig := buildSignal(g.Name(), br.Direction, entry, stop, tp)
	if sig == nil {
		return nil
	}
	sig.StructureBreakRef = brIdx
	return sig
}
