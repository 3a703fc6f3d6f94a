package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/pattern"
)

// loadCandlesCSV reads an OHLCV series from a CSV file with a
// time,open,high,low,close,volume header. The time column accepts unix
// milliseconds or RFC3339.
func loadCandlesCSV(path string) ([]core.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening candles file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading candles header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"time", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("candles file %s missing column %q", path, required)
		}
	}

	var candles []core.Candle
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading candles row %d: %w", line, err)
		}

		t, err := parseTime(record[col["time"]])
		if err != nil {
			return nil, fmt.Errorf("candles row %d: %w", line, err)
		}
		c := core.Candle{Time: t}
		for _, field := range []struct {
			name string
			dst  *float64
		}{
			{"open", &c.Open},
			{"high", &c.High},
			{"low", &c.Low},
			{"close", &c.Close},
			{"volume", &c.Volume},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col[field.name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("candles row %d, column %s: %w", line, field.name, err)
			}
			*field.dst = v
		}
		candles = append(candles, c)
	}

	if len(candles) == 0 {
		return nil, core.ErrNoData
	}
	return candles, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable time %q (want unix ms or RFC3339)", s)
	}
	return t.UTC(), nil
}

// loadAnnotations reads precomputed per-bar pattern annotations from a JSON
// array of bar records.
func loadAnnotations(path string) ([]pattern.BarAnnotations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening annotations file: %w", err)
	}
	var bars []pattern.BarAnnotations
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("parsing annotations file: %w", err)
	}
	return bars, nil
}

// parseSymbolPaths turns repeated SYMBOL=path flag values into a map.
func parseSymbolPaths(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		sym, path, ok := strings.Cut(v, "=")
		if !ok || sym == "" || path == "" {
			return nil, fmt.Errorf("invalid candles flag %q (want SYMBOL=path)", v)
		}
		out[sym] = path
	}
	return out, nil
}
