package core

import (
	"math"
	"time"
)

// Direction represents the side of a trade
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Sign returns +1 for long, -1 for short
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// Opposite returns the other trade side
func (d Direction) Opposite() Direction {
	if d == DirectionLong {
		return DirectionShort
	}
	return DirectionLong
}

// Candle represents a single OHLCV bar. Timestamps are strictly increasing
// within a series; candles are immutable once loaded.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// StrategySignal is a candidate entry proposed by one strategy generator.
// Pattern reference indices point into the lookback slice the generator saw;
// -1 means no reference.
type StrategySignal struct {
	Strategy   string
	Direction  Direction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	RiskReward float64

	// Reversal marks change-of-character signals, which are exempt from the
	// structure-bias hard filter (the CHoCH event is the validating structure).
	Reversal bool

	OrderBlockRef     int
	FVGRef            int
	StructureBreakRef int
}

// Risk returns the entry-to-stop distance.
func (s StrategySignal) Risk() float64 {
	return math.Abs(s.Entry - s.StopLoss)
}

// Valid reports whether the signal has a finite, positive risk:reward.
func (s StrategySignal) Valid() bool {
	return s.RiskReward > 0 && !math.IsInf(s.RiskReward, 0) && !math.IsNaN(s.RiskReward)
}

// ScoredSignal is a StrategySignal plus its confluence score. Breakdown maps
// factor name to the weighted contribution; TotalScore is exactly the sum of
// the breakdown values.
type ScoredSignal struct {
	Signal     StrategySignal
	TotalScore float64
	Breakdown  map[string]float64
}

// Exit reasons for a simulated trade.
const (
	ExitStopLoss   = "stop_loss"
	ExitTakeProfit = "take_profit"
	ExitTime       = "time_exit"
	ExitForced     = "forced_close"
)

// TradeResult is one resolved position. PnL is a fraction of entry price
// (friction included), blending any partial close proportionally.
type TradeResult struct {
	Strategy   string
	Direction  Direction
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	ExitReason string
	Partial    bool
}

// IsWin reports whether the trade closed profitable.
func (t TradeResult) IsWin() bool {
	return t.PnL > 0
}

// WindowResult holds one validation window's trades and aggregate metrics.
// A window with zero trades is recorded but ineligible: it counts in neither
// the numerator nor the denominator of the pass rate.
type WindowResult struct {
	Symbol      string
	Index       int
	TrainStart  time.Time
	TrainEnd    time.Time
	ValStart    time.Time
	ValEnd      time.Time
	Trades      []TradeResult
	TradeCount  int
	WinRate     float64
	Sharpe      float64
	MaxDrawdown float64
	TotalPnL    float64
	Eligible    bool
	Passed      bool
}
