package strategy

import (
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
)

// FVGEntry proposes an entry when price retraces into an unfilled fair value
// gap. Displacement gaps are preferred; plain gaps still qualify and the
// scorer grades them down through the gap-quality factor.
type FVGEntry struct {
	targetRR   float64
	stopBuffer float64 // fraction of gap height beyond the far edge
	minSize    float64 // minimum gap size as fraction of price
}

// NewFVGEntry creates the generator with tuned defaults.
func NewFVGEntry() *FVGEntry {
	return &FVGEntry{
		targetRR:   2.5,
		stopBuffer: 0.25,
		minSize:    0.001,
	}
}

func (g *FVGEntry) Name() string { return NameFVGEntry }

func (g *FVGEntry) DetectEntry(candles []core.Candle, index int, snap pattern.Snapshot) *core.StrategySignal {
	if index < minBars || index >= len(candles) {
		return nil
	}
	c := candles[index]

	best := -1
	for i, gap := range snap.Gaps {
		if gap.Status != pattern.StatusUnfilled || gap.Size < g.minSize {
			continue
		}
		if gap.Index >= index {
			continue
		}
		entered := false
		switch gap.Type {
		case pattern.BiasBullish:
			entered = c.Low <= gap.Top && c.Close >= gap.Bottom
		case pattern.BiasBearish:
			entered = c.High >= gap.Bottom && c.Close <= gap.Top
		}
		if !entered {
			continue
		}
		if best < 0 || gap.Index > snap.Gaps[best].Index {
			best = i
		}
	}
	if best < 0 {
		return nil
	}

	gap := snap.Gaps[best]
	dir, ok := directionFor(gap.Type)
	if !ok {
		return nil
	}

	height := gap.Top - gap.Bottom
	entry := c.Close
	var stop float64
	if dir == core.DirectionLong {
		stop = gap.Bottom - g.stopBuffer*height
	} else {
		stop = gap.Top + g.stopBuffer*height
	}
	tp := entry + g.targetRR*(entry-stop)

	sig := buildSignal(g.Name(), dir, entry, stop, tp)
	if sig == nil {
		return nil
	}
	sig.FVGRef = best
	return sig
}
