package backtest

import (
	"math"
	"testing"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

func TestReturns(t *testing.T) {
	trades := []core.TradeResult{
		{PnL: 0.10},
		{PnL: -0.05},
		{PnL: 0.02},
	}
	returns := Returns(trades)
	if len(returns) != 3 {
		t.Fatalf("len = %d, want 3", len(returns))
	}
	if returns[1] != -0.05 {
		t.Errorf("returns[1] = %f, want -0.05", returns[1])
	}
}

func TestSharpe_PositiveEdge(t *testing.T) {
	returns := []float64{0.02, 0.01, 0.03, 0.015, 0.025}
	if s := Sharpe(returns, 365*24); s <= 0 {
		t.Errorf("Sharpe = %f, want positive for all-winning returns", s)
	}
}

func TestSharpe_TooFewSamples(t *testing.T) {
	if s := Sharpe([]float64{0.05}, 365); s != 0 {
		t.Errorf("Sharpe = %f, want 0 for a single return", s)
	}
	if s := Sharpe(nil, 365); s != 0 {
		t.Errorf("Sharpe = %f, want 0 for empty returns", s)
	}
}

func TestSharpe_ZeroVariance(t *testing.T) {
	returns := []float64{0.01, 0.01, 0.01}
	if s := Sharpe(returns, 365); s != 0 {
		t.Errorf("Sharpe = %f, want 0 for constant returns", s)
	}
}

func TestMaxDrawdown(t *testing.T) {
	// Peak after +10%/+5%, then -20%: compounded trough is 20% below peak.
	returns := []float64{0.10, 0.05, -0.20, 0.10}
	dd := MaxDrawdown(returns)
	if dd < 0.19 || dd > 0.21 {
		t.Errorf("MaxDrawdown = %f, expected ~0.20", dd)
	}
}

func TestMaxDrawdown_AllGains(t *testing.T) {
	if dd := MaxDrawdown([]float64{0.01, 0.02, 0.03}); dd != 0 {
		t.Errorf("MaxDrawdown = %f, want 0 without any losing stretch", dd)
	}
}

func TestWinRate(t *testing.T) {
	returns := []float64{0.10, 0.05, -0.03, 0.02}
	if wr := WinRate(returns); math.Abs(wr-0.75) > 1e-9 {
		t.Errorf("WinRate = %f, want 0.75", wr)
	}
	if wr := WinRate(nil); wr != 0 {
		t.Errorf("WinRate = %f, want 0 for empty returns", wr)
	}
}

func TestCompoundReturn(t *testing.T) {
	returns := []float64{0.10, -0.05}
	want := 1.10*0.95 - 1
	if got := CompoundReturn(returns); math.Abs(got-want) > 1e-12 {
		t.Errorf("CompoundReturn = %f, want %f", got, want)
	}
}
