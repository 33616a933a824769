package scoring

// Tier boundaries, inclusive on the lower edge.
const (
	HighThreshold     = 70
	ModerateThreshold = 40
)

// Tier is the discrete risk level.
type Tier string

const (
	TierLow      Tier = "LOW"
	TierModerate Tier = "MODERATE"
	TierHigh     Tier = "HIGH"
)

type tierInfo struct {
	label          string
	recommendation string
	actionable     bool
}

var tiers = map[Tier]tierInfo{
	TierHigh:     {"High Risk", "Recommend professional dyslexia assessment", true},
	TierModerate: {"Moderate Risk", "Monitor progress, consider follow-up screening", true},
	TierLow:      {"Low Risk", "Typical pattern detected", false},
}

// TierFromScore maps a final score to its tier.
func TierFromScore(score int) Tier {
	switch {
	case score >= HighThreshold:
		return TierHigh
	case score >= ModerateThreshold:
		return TierModerate
	default:
		return TierLow
	}
}

// Label returns the display label.
func (t Tier) Label() string { return tiers[t].label }

// Recommendation returns the tier summary recommendation.
func (t Tier) Recommendation() string { return tiers[t].recommendation }

// Actionable reports whether the tier calls for follow-up.
func (t Tier) Actionable() bool { return tiers[t].actionable }
