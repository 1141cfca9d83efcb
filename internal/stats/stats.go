// Package stats provides the numeric routines shared by the analyzers:
// Benford first-digit testing, quartile and z-score outlier detection,
// concentration indexes and round-value heuristics. All functions operate
// on plain float64 slices and never mutate their input.
package stats

import (
	"math"
	"sort"
)

// BenfordExpected is the expected first-digit distribution under
// Benford's law, indexed by digit-1.
var BenfordExpected = [9]float64{
	0.301, 0.176, 0.125, 0.097, 0.079, 0.067, 0.058, 0.051, 0.046,
}

// benfordCritical is the chi-squared critical value for 8 degrees of
// freedom at a 0.05 significance level.
const benfordCritical = 15.51

// FirstDigit returns the leading significant digit of v, or 0 when v
// has no significant digit (zero, NaN or infinite).
func FirstDigit(v float64) int {
	v = math.Abs(v)
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	for v >= 10 {
		v /= 10
	}
	for v < 1 {
		v *= 10
	}
	return int(v)
}

// BenfordDistribution counts leading digits 1..9 across values, skipping
// entries without a significant digit. The second return is the number
// of values counted.
func BenfordDistribution(values []float64) ([9]int, int) {
	var counts [9]int
	n := 0
	for _, v := range values {
		d := FirstDigit(v)
		if d == 0 {
			continue
		}
		counts[d-1]++
		n++
	}
	return counts, n
}

// BenfordResult is the outcome of a Benford first-digit test.
type BenfordResult struct {
	ChiSquared float64
	Samples    int
	Anomalous  bool
}

// BenfordChiSquared runs a chi-squared goodness-of-fit test of the
// first digits of values against Benford's law. The test abstains
// (ok=false) when fewer than minSamples values carry a significant
// digit or when any of the nine digits is entirely absent, since a
// sparse distribution produces unstable statistics.
func BenfordChiSquared(values []float64, minSamples int) (BenfordResult, bool) {
	counts, n := BenfordDistribution(values)
	if n < minSamples {
		return BenfordResult{Samples: n}, false
	}
	for _, c := range counts {
		if c == 0 {
			return BenfordResult{Samples: n}, false
		}
	}
	chi := 0.0
	for i, c := range counts {
		observed := float64(c) / float64(n)
		expected := BenfordExpected[i]
		chi += (observed - expected) * (observed - expected) / expected
	}
	chi *= float64(n)
	return BenfordResult{
		ChiSquared: chi,
		Samples:    n,
		Anomalous:  chi > benfordCritical,
	}, true
}

// Outlier is a value flagged by an outlier detector, with the index it
// had in the input slice and the side of the distribution it fell on.
type Outlier struct {
	Index int
	Value float64
	Tag   string // "lower" or "upper"
}

// IQROutliers flags values outside the interquartile fences
// [Q1 - k*IQR, Q3 + k*IQR]. At least four values are required;
// otherwise no outliers are reported.
func IQROutliers(values []float64, k float64) []Outlier {
	n := len(values)
	if n < 4 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := sorted[n/4]
	q3 := sorted[3*n/4]
	iqr := q3 - q1
	lower := q1 - k*iqr
	upper := q3 + k*iqr

	var out []Outlier
	for i, v := range values {
		switch {
		case v < lower:
			out = append(out, Outlier{Index: i, Value: v, Tag: "lower"})
		case v > upper:
			out = append(out, Outlier{Index: i, Value: v, Tag: "upper"})
		}
	}
	return out
}

// ZScoreOutliers flags values whose distance from the mean exceeds
// k sample standard deviations. A degenerate distribution (fewer than
// three values or zero deviation) yields no outliers.
func ZScoreOutliers(values []float64, k float64) []Outlier {
	if len(values) < 3 {
		return nil
	}
	mean := Mean(values)
	sd := StdDev(values)
	if sd == 0 {
		return nil
	}
	var out []Outlier
	for i, v := range values {
		z := (v - mean) / sd
		switch {
		case z < -k:
			out = append(out, Outlier{Index: i, Value: v, Tag: "lower"})
		case z > k:
			out = append(out, Outlier{Index: i, Value: v, Tag: "upper"})
		}
	}
	return out
}

// GiniIndex measures the concentration of values on a 0..1 scale, where
// 0 is perfect equality and values approaching 1 indicate that a single
// entry dominates the total.
func GiniIndex(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var cum, total float64
	for i, v := range sorted {
		cum += float64(i+1) * v
		total += v
	}
	if total == 0 {
		return 0
	}
	return (2*cum)/(float64(n)*total) - float64(n+1)/float64(n)
}

// CoefficientOfVariation returns the sample standard deviation divided
// by the mean, or 0 when the mean is zero.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return StdDev(values) / mean
}

// RoundValues returns the indexes of values that are exact multiples of
// tolerance, ignoring values below floor. Small amounts are naturally
// round and carry no signal.
func RoundValues(values []float64, tolerance, floor float64) []int {
	if tolerance <= 0 {
		return nil
	}
	var idx []int
	for i, v := range values {
		if v < floor {
			continue
		}
		if math.Mod(v, tolerance) == 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// NearDuplicates groups indexes of values that repeat within a relative
// tolerance, returning only groups of at least minCount occurrences of
// values above floor. Groups are keyed by their smallest member. A zero
// tolerance groups exact repeats only.
func NearDuplicates(values []float64, minCount int, floor, tolerance float64) map[float64][]int {
	eligible := make([]int, 0, len(values))
	for i, v := range values {
		if v > floor {
			eligible = append(eligible, i)
		}
	}
	sort.SliceStable(eligible, func(a, b int) bool {
		return values[eligible[a]] < values[eligible[b]]
	})

	groups := make(map[float64][]int)
	for start := 0; start < len(eligible); {
		base := values[eligible[start]]
		end := start + 1
		for end < len(eligible) && values[eligible[end]]-base <= base*tolerance {
			end++
		}
		if end-start >= minCount {
			idx := append([]int(nil), eligible[start:end]...)
			sort.Ints(idx)
			groups[base] = idx
		}
		start = end
	}
	if len(groups) == 0 {
		return nil
	}
	return groups
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Median returns the middle value of the sorted slice, averaging the
// two central values for even lengths.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// StdDev returns the sample standard deviation (n-1 denominator), or 0
// when fewer than two values are given.
func StdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
