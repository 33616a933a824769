package features

import "math"

const percent = 100

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation of xs, or 0 for an empty slice.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}

// CoefficientOfVariation returns std/mean as a percentage. A zero mean yields 0.
func CoefficientOfVariation(xs []float64) float64 {
	m := Mean(xs)
	if m == 0 {
		return 0
	}
	return StdDev(xs) / m * percent
}

// Positive returns the strictly positive values of xs in their original order.
func Positive(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if x > 0 {
			out = append(out, x)
		}
	}
	return out
}

// RatePer100 returns count per 100 units of length (e.g. per 100 characters).
func RatePer100(count, length float64) float64 {
	if length <= 0 {
		return 0
	}
	return count / length * percent
}

// RatePerMinute returns count divided by minutes.
func RatePerMinute(count, minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return count / minutes
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Accuracy scores typed against expected as a 0-100 similarity percentage.
func Accuracy(expected, typed string) float64 {
	maxLen := max(len([]rune(expected)), len([]rune(typed)))
	if maxLen == 0 {
		maxLen = 1
	}
	d := Levenshtein(expected, typed)
	return float64(maxLen-d) / float64(maxLen) * percent
}
