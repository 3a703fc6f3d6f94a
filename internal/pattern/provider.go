package pattern

import (
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

// Provider supplies pattern annotations for a bar. The candle slice is the
// scorer's bounded lookback window and index points at the bar under
// evaluation; the returned Snapshot must use indices local to that slice.
type Provider interface {
	Analyze(candles []core.Candle, index int) (Snapshot, error)
}

// BarAnnotations is one bar's worth of precomputed detector output, indexed
// by absolute position in the full series. This is the load format produced
// by the upstream detectors.
type BarAnnotations struct {
	BarIndex int      `json:"bar_index"`
	Time     int64    `json:"time"` // unix milliseconds, matches the candle
	Snapshot Snapshot `json:"snapshot"`
}

// SliceProvider serves precomputed annotations keyed by candle timestamp and
// re-indexes them into whatever lookback slice the scorer is holding.
// Missing bars yield a neutral snapshot, which evaluates to "wait"
// downstream; that is the normal warm-up path, not an error.
type SliceProvider struct {
	byTime map[int64]BarAnnotations
}

// NewSliceProvider builds a provider from precomputed per-bar annotations.
func NewSliceProvider(bars []BarAnnotations) *SliceProvider {
	byTime := make(map[int64]BarAnnotations, len(bars))
	for _, b := range bars {
		byTime[b.Time] = b
	}
	return &SliceProvider{byTime: byTime}
}

// Analyze implements Provider. Annotation indices are shifted from absolute
// series positions into the local slice; anything originating before the
// slice start is dropped so every surviving index is valid locally.
func (p *SliceProvider) Analyze(candles []core.Candle, index int) (Snapshot, error) {
	if index < 0 || index >= len(candles) {
		return neutralSnapshot(), core.ErrInsufficientData
	}

	ann, ok := p.byTime[candles[index].Time.UnixMilli()]
	if !ok {
		return neutralSnapshot(), nil
	}

	offset := ann.BarIndex - index
	return localize(ann.Snapshot, offset), nil
}

// localize shifts all annotation indices down by offset and drops entries
// that fall before the local slice. Status fields pass through untouched, so
// monotone transitions recorded upstream stay monotone here.
func localize(s Snapshot, offset int) Snapshot {
	out := Snapshot{
		Structure: StructureContext{Bias: s.Structure.Bias},
		Regime:    s.Regime,
		KillZone:  s.KillZone,
	}

	for _, br := range s.Structure.Breaks {
		if i := br.Index - offset; i >= 0 {
			br.Index = i
			out.Structure.Breaks = append(out.Structure.Breaks, br)
		}
	}
	for _, ob := range s.OrderBlocks {
		if i := ob.Index - offset; i >= 0 {
			ob.Index = i
			out.OrderBlocks = append(out.OrderBlocks, ob)
		}
	}
	for _, g := range s.Gaps {
		if i := g.Index - offset; i >= 0 {
			g.Index = i
			out.Gaps = append(out.Gaps, g)
		}
	}
	for _, sw := range s.Sweeps {
		if i := sw.Index - offset; i >= 0 {
			sw.Index = i
			out.Sweeps = append(out.Sweeps, sw)
		}
	}
	for _, bb := range s.Breakers {
		if i := bb.Index - offset; i >= 0 {
			bb.Index = i
			out.Breakers = append(out.Breakers, bb)
		}
	}
	return out
}

func neutralSnapshot() Snapshot {
	return Snapshot{
		Structure: StructureContext{Bias: BiasNeutral},
		Regime: RegimeLabel{
			Trend:      TrendRanging,
			Volatility: VolNormal,
		},
	}
}
