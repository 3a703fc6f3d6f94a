package pattern

import (
	"testing"
	"time"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

func seriesCandles(n int) []core.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]core.Candle, n)
	for i := range out {
		out[i] = core.Candle{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   100,
			High:   101,
			Low:    99,
			Close:  100,
			Volume: 10,
		}
	}
	return out
}

func TestSliceProvider_LocalizesIndices(t *testing.T) {
	full := seriesCandles(100)

	// Annotations for absolute bar 60, referencing a block at absolute 55.
	bars := []BarAnnotations{{
		BarIndex: 60,
		Time:     full[60].Time.UnixMilli(),
		Snapshot: Snapshot{
			Structure: StructureContext{Bias: BiasBullish},
			OrderBlocks: []OrderBlock{
				{Index: 55, Type: BiasBullish, High: 101, Low: 100, Status: StatusUnmitigated},
			},
		},
	}}
	p := NewSliceProvider(bars)

	// The scorer hands over a lookback slice starting at absolute 41.
	local := full[41:61]
	snap, err := p.Analyze(local, len(local)-1)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if snap.Structure.Bias != BiasBullish {
		t.Errorf("bias = %s, want bullish", snap.Structure.Bias)
	}
	if len(snap.OrderBlocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(snap.OrderBlocks))
	}
	if snap.OrderBlocks[0].Index != 14 { // 55 - 41
		t.Errorf("localized index = %d, want 14", snap.OrderBlocks[0].Index)
	}
}

func TestSliceProvider_DropsPreSliceEntries(t *testing.T) {
	full := seriesCandles(100)

	bars := []BarAnnotations{{
		BarIndex: 60,
		Time:     full[60].Time.UnixMilli(),
		Snapshot: Snapshot{
			Structure: StructureContext{
				Bias: BiasBullish,
				Breaks: []StructureBreak{
					{Type: BreakBOS, Direction: core.DirectionLong, Confidence: 0.9, Index: 10},
					{Type: BreakBOS, Direction: core.DirectionLong, Confidence: 0.7, Index: 58},
				},
			},
		},
	}}
	p := NewSliceProvider(bars)

	local := full[50:61]
	snap, err := p.Analyze(local, len(local)-1)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// The break at absolute 10 predates the slice and must vanish; the one at
	// 58 localizes to 8.
	if len(snap.Structure.Breaks) != 1 {
		t.Fatalf("breaks = %d, want 1 after dropping pre-slice entries", len(snap.Structure.Breaks))
	}
	if snap.Structure.Breaks[0].Index != 8 {
		t.Errorf("localized index = %d, want 8", snap.Structure.Breaks[0].Index)
	}
}

func TestSliceProvider_MissingBarIsNeutral(t *testing.T) {
	p := NewSliceProvider(nil)
	local := seriesCandles(10)

	snap, err := p.Analyze(local, 9)
	if err != nil {
		t.Fatalf("a missing annotation is warm-up, not an error: %v", err)
	}
	if snap.Structure.Bias != BiasNeutral {
		t.Errorf("bias = %s, want neutral", snap.Structure.Bias)
	}
	if len(snap.OrderBlocks) != 0 || len(snap.Gaps) != 0 {
		t.Error("neutral snapshot must carry no patterns")
	}
	if snap.KillZone.Active {
		t.Error("neutral snapshot must have no active session")
	}
}

func TestSliceProvider_OutOfRangeIndex(t *testing.T) {
	p := NewSliceProvider(nil)
	local := seriesCandles(10)
	if _, err := p.Analyze(local, 10); err == nil {
		t.Error("expected an error for an out-of-range index")
	}
}

func TestSliceProvider_StatusPassesThrough(t *testing.T) {
	full := seriesCandles(30)
	bars := []BarAnnotations{{
		BarIndex: 20,
		Time:     full[20].Time.UnixMilli(),
		Snapshot: Snapshot{
			Structure: StructureContext{Bias: BiasNeutral},
			Gaps: []FairValueGap{
				{Index: 15, Type: BiasBullish, Top: 101, Bottom: 100, Status: StatusFilled},
			},
		},
	}}
	p := NewSliceProvider(bars)

	local := full[:21]
	snap, err := p.Analyze(local, 20)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if snap.Gaps[0].Status != StatusFilled {
		t.Errorf("status = %s, want filled to pass through unchanged", snap.Gaps[0].Status)
	}
}

func TestAggregateCandles(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := []core.Candle{
		{Time: base, Open: 100, High: 102, Low: 99, Close: 101, Volume: 10},
		{Time: base.Add(time.Hour), Open: 101, High: 104, Low: 100, Close: 103, Volume: 20},
		{Time: base.Add(2 * time.Hour), Open: 103, High: 103.5, Low: 98, Close: 99, Volume: 15},
		{Time: base.Add(3 * time.Hour), Open: 99, High: 100, Low: 98.5, Close: 99.5, Volume: 5},
		{Time: base.Add(4 * time.Hour), Open: 99.5, High: 101, Low: 99, Close: 100.5, Volume: 8},
	}

	htf := AggregateCandles(candles, 2)
	if len(htf) != 3 {
		t.Fatalf("len = %d, want 3 (trailing partial group kept)", len(htf))
	}

	first := htf[0]
	if first.Open != 100 || first.Close != 103 {
		t.Errorf("first group open/close = %f/%f, want 100/103", first.Open, first.Close)
	}
	if first.High != 104 || first.Low != 99 {
		t.Errorf("first group high/low = %f/%f, want 104/99", first.High, first.Low)
	}
	if first.Volume != 30 {
		t.Errorf("first group volume = %f, want 30", first.Volume)
	}
	if !first.Time.Equal(base) {
		t.Errorf("group time = %v, want the first bar's time", first.Time)
	}

	// The trailing single candle survives as its own group.
	if htf[2].Close != 100.5 || htf[2].Volume != 8 {
		t.Errorf("trailing group = %+v, want the last base candle", htf[2])
	}
}

func TestAggregateCandles_Passthrough(t *testing.T) {
	candles := seriesCandles(5)
	if got := AggregateCandles(candles, 1); len(got) != 5 {
		t.Errorf("n=1 must pass candles through, got %d", len(got))
	}
	if got := AggregateCandles(nil, 4); len(got) != 0 {
		t.Errorf("empty input must stay empty, got %d", len(got))
	}
}

func TestBiasFromCandles(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mk := func(levels ...float64) []core.Candle {
		out := make([]core.Candle, len(levels))
		for i, l := range levels {
			out[i] = core.Candle{
				Time: base.Add(time.Duration(i) * time.Hour),
				High: l + 1, Low: l - 1, Open: l, Close: l,
			}
		}
		return out
	}

	if b := BiasFromCandles(mk(100, 101, 105, 106), 0); b != BiasBullish {
		t.Errorf("rising series bias = %s, want bullish", b)
	}
	if b := BiasFromCandles(mk(106, 105, 101, 100), 0); b != BiasBearish {
		t.Errorf("falling series bias = %s, want bearish", b)
	}
	if b := BiasFromCandles(mk(100, 101, 105, 95), 0); b != BiasNeutral {
		t.Errorf("mixed series bias = %s, want neutral", b)
	}
	if b := BiasFromCandles(mk(100, 110), 0); b != BiasNeutral {
		t.Errorf("short series bias = %s, want neutral during warm-up", b)
	}
}

func TestBiasFromCandles_LookbackBounds(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	// A long falling stretch followed by a short rising one: the bounded
	// lookback must only see the rising tail.
	var candles []core.Candle
	for i := 0; i < 20; i++ {
		l := 200 - float64(i)
		candles = append(candles, core.Candle{
			Time: base.Add(time.Duration(i) * time.Hour),
			High: l + 1, Low: l - 1, Open: l, Close: l,
		})
	}
	for i := 0; i < 6; i++ {
		l := 100 + float64(i)*5
		candles = append(candles, core.Candle{
			Time: base.Add(time.Duration(20+i) * time.Hour),
			High: l + 1, Low: l - 1, Open: l, Close: l,
		})
	}

	if b := BiasFromCandles(candles, 6); b != BiasBullish {
		t.Errorf("bounded bias = %s, want bullish from the tail", b)
	}
	if b := BiasFromCandles(candles, 0); b == BiasBullish {
		t.Errorf("unbounded bias should not read bullish, got %s", b)
	}
}
