package robustness

import (
	"math"
	"math/rand"
	"time"

	"github.com/dolgoonnn/rl-trading-agent-sub003/internal/core"
)

// PBOResult is the probability-of-backtest-overfitting estimate from
// combinatorially symmetric cross-validation.
type PBOResult struct {
	Variants int
	Windows  int
	Splits   int

	// PBO is the fraction of balanced splits where the in-sample best
	// variant ranks below the out-of-sample median. Near 0 when one
	// variant genuinely dominates, near 0.5 when variant selection is
	// chasing noise.
	PBO float64

	// MeanLogit is the average logit of the out-of-sample relative rank;
	// negative values indicate systematic in-sample/out-of-sample rank
	// reversal.
	MeanLogit float64
}

// maxEnumeratedSplits caps exhaustive split enumeration; beyond it the
// check falls back to seeded random balanced splits.
const maxEnumeratedSplits = 2000

// PBO estimates the probability of backtest overfitting. matrix[k][w] is
// variant k's performance metric on window w; every variant must cover the
// same windows. Windows are split into balanced in-sample/out-of-sample
// halves; for each split the in-sample winner's out-of-sample rank is
// recorded.
func (s *Suite) PBO(matrix [][]float64) (*PBOResult, error) {
	k := len(matrix)
	if k < 2 {
		return nil, core.WrapError(core.ErrInsufficientSample, errVariants)
	}
	n := len(matrix[0])
	for _, row := range matrix {
		if len(row) != n {
			return nil, core.WrapError(core.ErrDegenerateStats, errRagged)
		}
	}
	// Balanced halves need an even window count; an odd trailing window is
	// dropped from the split set.
	if n%2 != 0 {
		n--
	}
	if n < 4 {
		return nil, core.WrapError(core.ErrInsufficientSample, errWindows)
	}

	started := time.Now()
	splits := balancedSplits(n, s.cfg.Seed+seedPBO)

	below := 0
	var logitSum float64
	for _, inSample := range splits {
		isBest := bestVariant(matrix, inSample)
		oosRank := relativeRank(matrix, complement(inSample, n), isBest)

		// omega in (0,1): 1/(K+1) = worst, K/(K+1) = best.
		omega := oosRank / float64(k+1)
		logitSum += math.Log(omega / (1 - omega))
		if omega <= 0.5 {
			below++
		}
	}

	s.observe("pbo", started, len(splits))
	return &PBOResult{
		Variants:  k,
		Windows:   n,
		Splits:    len(splits),
		PBO:       float64(below) / float64(len(splits)),
		MeanLogit: logitSum / float64(len(splits)),
	}, nil
}

// balancedSplits enumerates all C(n, n/2) in-sample index sets when that is
// tractable, otherwise samples maxEnumeratedSplits of them with a seeded
// generator.
func balancedSplits(n int, seed int64) [][]int {
	half := n / 2
	total := binomial(n, half)

	if total <= maxEnumeratedSplits {
		return enumerateCombinations(n, half)
	}

	rng := rand.New(rand.NewSource(seed))
	splits := make([][]int, maxEnumeratedSplits)
	for i := range splits {
		perm := rng.Perm(n)
		in := append([]int(nil), perm[:half]...)
		splits[i] = in
	}
	return splits
}

// enumerateCombinations lists all k-subsets of [0, n) in lexical order.
func enumerateCombinations(n, k int) [][]int {
	var out [][]int
	comb := make([]int, k)
	for i := range comb {
		comb[i] = i
	}
	for {
		out = append(out, append([]int(nil), comb...))

		// Advance to the next combination.
		i := k - 1
		for i >= 0 && comb[i] == n-k+i {
			i--
		}
		if i < 0 {
			return out
		}
		comb[i]++
		for j := i + 1; j < k; j++ {
			comb[j] = comb[j-1] + 1
		}
	}
}

func binomial(n, k int) int {
	if k > n-k {
		k = n - k
	}
	result := 1
	for i := 0; i < k; i++ {
		result = result * (n - i) / (i + 1)
		if result > maxEnumeratedSplits {
			// Caller only needs to know it exceeds the cap.
			return result
		}
	}
	return result
}

func complement(inSample []int, n int) []int {
	in := make(map[int]bool, len(inSample))
	for _, i := range inSample {
		in[i] = true
	}
	out := make([]int, 0, n-len(inSample))
	for i := 0; i < n; i++ {
		if !in[i] {
			out = append(out, i)
		}
	}
	return out
}

// bestVariant returns the variant with the highest mean metric over the
// given windows; ties resolve to the lowest index for determinism.
func bestVariant(matrix [][]float64, windows []int) int {
	best := 0
	bestMean := windowMean(matrix[0], windows)
	for v := 1; v < len(matrix); v++ {
		if m := windowMean(matrix[v], windows); m > bestMean {
			best = v
			bestMean = m
		}
	}
	return best
}

// relativeRank returns variant v's ascending rank (1 = worst) among all
// variants by mean metric over the given windows, with ties averaged.
func relativeRank(matrix [][]float64, windows []int, v int) float64 {
	target := windowMean(matrix[v], windows)
	rank := 1.0
	for u := range matrix {
		if u == v {
			continue
		}
		m := windowMean(matrix[u], windows)
		if m < target {
			rank++
		} else if m == target {
			rank += 0.5
		}
	}
	return rank
}

func windowMean(row []float64, windows []int) float64 {
	var sum float64
	for _, w := range windows {
		sum += row[w]
	}
	return sum / float64(len(windows))
}

var (
	errVariants = errString("need at least 2 parameter variants")
	errRagged   = errString("variant metric vectors have unequal lengths")
	errWindows  = errString("need at least 4 windows for balanced splits")
)

type errString string

func (e errString) Error() string { return string(e) }
