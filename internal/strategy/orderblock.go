package strategy

import (
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
)

// OrderBlockEntry proposes an entry when price trades back into an
// unmitigated order block. Bullish blocks propose longs off the touch,
// bearish blocks shorts.
type OrderBlockEntry struct {
	targetRR    float64
	stopBuffer  float64 // fraction of block height beyond the far edge
	minStrength float64
}

// NewOrderBlockEntry creates the generator with tuned defaults.
func NewOrderBlockEntry() *OrderBlockEntry {
	return &OrderBlockEntry{
		targetRR:    3.0,
		stopBuffer:  0.1,
		minStrength: 0.3,
	}
}

func (g *OrderBlockEntry) Name() string { return NameOrderBlockEntry }

func (g *OrderBlockEntry) DetectEntry(candles []core.Candle, index int, snap pattern.Snapshot) *core.StrategySignal {
	if index < minBars || index >= len(candles) {
		return nil
	}
	c := candles[index]

	// Most recent qualifying block wins; older blocks behind it are stale.
	best := -1
	for i, ob := range snap.OrderBlocks {
		if ob.Status != pattern.StatusUnmitigated || ob.Strength < g.minStrength {
			continue
		}
		if ob.Index >= index {
			continue
		}
		touched := false
		switch ob.Type {
		case pattern.BiasBullish:
			touched = c.Low <= ob.High && c.Close >= ob.Low
		case pattern.BiasBearish:
			touched = c.High >= ob.Low && c.Close <= ob.High
		}
		if !touched {
			continue
		}
		if best < 0 || ob.Index > snap.OrderBlocks[best].Index {
			best = i
		}
	}
	if best < 0 {
		return nil
	}

	ob := snap.OrderBlocks[best]
	dir, ok := directionFor(ob.Type)
	if !ok {
		return nil
	}

	height := ob.High - ob.Low
	entry := c.Close
	var stop float64
	if dir == core.DirectionLong {
		stop = ob.Low - g.stopBuffer*height
	} else {
		stop = ob.High + g.stopBuffer*height
	}
	tp := entry + g.targetRR*(entry-stop)

	sig := buildSignal(g.Name(), dir, entry, stop, tp)
	if sig == nil {
		return nil
	}
	sig.OrderBlockRef = best
	return sig
}
