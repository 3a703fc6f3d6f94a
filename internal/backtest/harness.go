package backtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/config"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/metrics"
)

// SymbolMeta carries per-symbol context through the Runner seam.
type SymbolMeta struct {
	Symbol   string
	Interval string
}

// Runner turns one (train, validation) window pair into trades. Training
// candles exist solely as lookback context; implementations must only
// produce trades whose entries fall inside the validation span. This is the
// seam through which optimization drivers swap scorer configurations without
// touching harness internals.
type Runner func(train, val []core.Candle, meta SymbolMeta) ([]core.TradeResult, error)

// SymbolSummary aggregates one symbol's windows.
type SymbolSummary struct {
	Symbol   string
	Windows  int
	Eligible int
	Passed   int
	Skipped  int
	Trades   int
}

// Report is the full output of one walk-forward run. PassRate counts only
// eligible windows: a zero-trade window is recorded but sits in neither the
// numerator nor the denominator.
type Report struct {
	Windows         []core.WindowResult
	PooledTrades    []core.TradeResult
	Symbols         []SymbolSummary
	TotalWindows    int
	EligibleWindows int
	PassedWindows   int
	SkippedWindows  int
	PassRate        float64
}

// Harness slides (train, validation) window pairs across each symbol's
// history and evaluates the injected runner on every pair. Windows are
// independent, so they are dispatched to a bounded worker pool and reduced
// by concatenation in window order.
type Harness struct {
	cfg     config.WalkForwardConfig
	runner  Runner
	logger  *zap.Logger
	metrics *metrics.Registry
}

// NewHarness creates a harness. logger and reg may be nil.
func NewHarness(cfg config.WalkForwardConfig, runner Runner, logger *zap.Logger, reg *metrics.Registry) *Harness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{
		cfg:     cfg,
		runner:  runner,
		logger:  logger,
		metrics: reg,
	}
}

type windowJob struct {
	symbol  string
	index   int
	candles []core.Candle
	trainLo int
	trainHi int
	valHi   int
}

type windowOutcome struct {
	result  core.WindowResult
	skipped bool
}

// Run executes the walk-forward across every symbol in series. Per-window
// runner failures are logged and recorded as skips; they never abort the
// run. Returns ErrNoData when no symbol has room for a single window.
func (h *Harness) Run(ctx context.Context, series map[string][]core.Candle) (*Report, error) {
	started := time.Now()

	symbols := make([]string, 0, len(series))
	for sym := range series {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	windowSpan := h.cfg.TrainBars + h.cfg.ValidationBars
	var jobs []windowJob
	for _, sym := range symbols {
		candles := series[sym]
		idx := 0
		for start := 0; start+windowSpan <= len(candles); start += h.cfg.StepBars {
			jobs = append(jobs, windowJob{
				symbol:  sym,
				index:   idx,
				candles: candles,
				trainLo: start,
				trainHi: start + h.cfg.TrainBars,
				valHi:   start + windowSpan,
			})
			idx++
		}
		if idx == 0 {
			h.logger.Warn("symbol has too little history for one window",
				zap.String("symbol", sym),
				zap.Int("candles", len(candles)),
				zap.Int("window_span", windowSpan),
			)
		}
	}
	if len(jobs) == 0 {
		return nil, core.ErrNoData
	}

	workers := h.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	outcomes := make([]windowOutcome, len(jobs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for ji, job := range jobs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(ji int, job windowJob) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[ji] = h.runWindow(job)
		}(ji, job)
	}
	wg.Wait()

	report := h.reduce(symbols, jobs, outcomes)

	if h.metrics != nil {
		h.metrics.ObserveHarnessDuration(time.Since(started).Seconds())
	}
	return report, nil
}

func (h *Harness) runWindow(job windowJob) windowOutcome {
	train := job.candles[job.trainLo:job.trainHi]
	val := job.candles[job.trainHi:job.valHi]

	result := core.WindowResult{
		Symbol:     job.symbol,
		Index:      job.index,
		TrainStart: train[0].Time,
		TrainEnd:   train[len(train)-1].Time,
		ValStart:   val[0].Time,
		ValEnd:     val[len(val)-1].Time,
	}

	trades, err := h.runner(train, val, SymbolMeta{Symbol: job.symbol, Interval: h.cfg.BarInterval})
	if err != nil {
		h.logger.Warn("window skipped",
			zap.String("symbol", job.symbol),
			zap.Int("window", job.index),
			zap.Error(err),
		)
		if h.metrics != nil {
			h.metrics.WindowEvaluated("skipped")
		}
		return windowOutcome{result: result, skipped: true}
	}

	returns := Returns(trades)
	result.Trades = trades
	result.TradeCount = len(trades)
	result.WinRate = WinRate(returns)
	result.Sharpe = Sharpe(returns, config.PeriodsPerYear(h.cfg.BarInterval))
	result.MaxDrawdown = MaxDrawdown(returns)
	result.TotalPnL = TotalPnL(returns)
	result.Eligible = len(trades) > 0
	result.Passed = result.Eligible && result.Sharpe > h.cfg.MinSharpe

	if h.metrics != nil {
		switch {
		case !result.Eligible:
			h.metrics.WindowEvaluated("ineligible")
		case result.Passed:
			h.metrics.WindowEvaluated("passed")
		default:
			h.metrics.WindowEvaluated("failed")
		}
		for _, t := range trades {
			h.metrics.TradeSimulated(t.ExitReason)
		}
	}
	return windowOutcome{result: result}
}

func (h *Harness) reduce(symbols []string, jobs []windowJob, outcomes []windowOutcome) *Report {
	report := &Report{}
	bySymbol := make(map[string]*SymbolSummary, len(symbols))
	for _, sym := range symbols {
		bySymbol[sym] = &SymbolSummary{Symbol: sym}
	}

	for i, oc := range outcomes {
		summary := bySymbol[jobs[i].symbol]
		summary.Windows++
		report.TotalWindows++

		if oc.skipped {
			summary.Skipped++
			report.SkippedWindows++
			continue
		}

		report.Windows = append(report.Windows, oc.result)
		report.PooledTrades = append(report.PooledTrades, oc.result.Trades...)
		summary.Trades += oc.result.TradeCount
		if oc.result.Eligible {
			summary.Eligible++
			report.EligibleWindows++
			if oc.result.Passed {
				summary.Passed++
				report.PassedWindows++
			}
		}
	}

	if report.EligibleWindows > 0 {
		report.PassRate = float64(report.PassedWindows) / float64(report.EligibleWindows)
	}
	for _, sym := range symbols {
		report.Symbols = append(report.Symbols, *bySymbol[sym])
	}
	return report
}
