package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/dyscreen/internal/domain/features"
)

const (
	minScore     = 0
	maxScore     = 100
	neutralScore = 50
)

// Direction tells which side of the reference range carries risk.
type Direction uint8

const (
	// HigherIsWorse scores values above the normal boundary as risk.
	HigherIsWorse Direction = iota
	// LowerIsWorse scores values below the normal boundary as risk.
	LowerIsWorse
)

func (d Direction) String() string {
	if d == LowerIsWorse {
		return "lower_is_worse"
	}
	return "higher_is_worse"
}

// ParseDirection accepts "higher_is_worse" or "lower_is_worse" (case-insensitive, '-' allowed).
func ParseDirection(s string) (Direction, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "", "higher_is_worse", "higher":
		return HigherIsWorse, nil
	case "lower_is_worse", "lower":
		return LowerIsWorse, nil
	default:
		return HigherIsWorse, fmt.Errorf("%w: unknown direction %q", ErrInvalidModel, s)
	}
}

// Policy selects the default score for a missing or invalid value.
type Policy uint8

const (
	// Required features default to the neutral midpoint.
	Required Policy = iota
	// Optional features default to zero risk.
	Optional
)

func (p Policy) String() string {
	if p == Optional {
		return "optional"
	}
	return "required"
}

// ParsePolicy accepts "required" or "optional".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "required":
		return Required, nil
	case "optional":
		return Optional, nil
	default:
		return Required, fmt.Errorf("%w: unknown policy %q", ErrInvalidModel, s)
	}
}

// Default returns the score used when a value cannot be normalized.
func (p Policy) Default() float64 {
	if p == Optional {
		return minScore
	}
	return neutralScore
}

// ReferenceRange anchors the linear interpolation for one feature.
type ReferenceRange struct {
	Normal    float64
	Atypical  float64
	Direction Direction
}

// Normalize maps v onto 0-100. The normal boundary scores exactly 0 and the
// atypical boundary exactly 100; everything beyond is clamped.
func Normalize(rr ReferenceRange, v float64) float64 {
	if math.IsNaN(v) {
		return minScore
	}
	var score float64
	switch rr.Direction {
	case LowerIsWorse:
		switch {
		case v >= rr.Normal:
			return minScore
		case v <= rr.Atypical:
			return maxScore
		}
		score = (rr.Normal - v) / (rr.Normal - rr.Atypical) * maxScore
	default:
		switch {
		case v <= rr.Normal:
			return minScore
		case v >= rr.Atypical:
			return maxScore
		}
		score = (v - rr.Normal) / (rr.Atypical - rr.Normal) * maxScore
	}
	return clamp(score, minScore, maxScore)
}

// NormalizeValue normalizes a tagged lookup, falling back to the feature's
// policy default. imputed reports whether the default was used.
func NormalizeValue(spec FeatureSpec, v features.Value) (score float64, imputed bool) {
	x, ok := v.Float()
	if !ok {
		return spec.Policy.Default(), true
	}
	return Normalize(spec.Range, x), false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
