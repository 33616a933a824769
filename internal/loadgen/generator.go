package loadgen

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/dyscreen/internal/domain/features"
	"github.com/okian/dyscreen/internal/domain/scoring"
)

// Profile is the kind of subject a submission imitates.
type Profile string

const (
	Typical  Profile = "typical"
	Atypical Profile = "atypical"
)

// Submission is one generated request plus the tier it should produce.
type Submission struct {
	ID       string              `json:"id"`
	Modality scoring.Modality    `json:"modality"`
	Features map[string]*float64 `json:"features"`

	Profile Profile      `json:"-"`
	Want    scoring.Tier `json:"-"`
}

// between draws uniformly from [lo, hi].
func between(r *rand.Rand, lo, hi float64) *float64 {
	v := lo + r.Float64()*(hi-lo)
	return &v
}

// Generate builds n submissions alternating modality and profile. Values stay
// far enough from the tier boundaries that an enabled anomaly model cannot
// move a submission into another tier.
func Generate(n int, seed uint64) []Submission {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]Submission, 0, n)
	for i := range n {
		modality := scoring.Reading
		if i%2 == 1 {
			modality = scoring.Keystroke
		}
		profile := Typical
		if (i/2)%2 == 1 {
			profile = Atypical
		}
		out = append(out, generate(r, modality, profile))
	}
	return out
}

func generate(r *rand.Rand, modality scoring.Modality, profile Profile) Submission {
	s := Submission{ID: uuid.NewString(), Modality: modality, Profile: profile}
	switch {
	case modality == scoring.Reading && profile == Typical:
		s.Want = scoring.TierLow
		s.Features = map[string]*float64{
			features.ReadingTime:        between(r, 55, 75),
			features.ComprehensionScore: between(r, 85, 100),
			features.RevisitCount:       between(r, 0, 2),
			features.PauseCount:         between(r, 2, 5),
			features.AvgPauseDuration:   between(r, 2000, 3000),
		}
	case modality == scoring.Reading:
		s.Want = scoring.TierHigh
		s.Features = map[string]*float64{
			features.ReadingTime:        between(r, 152, 220),
			features.ComprehensionScore: between(r, 0, 45),
			features.RevisitCount:       between(r, 12.4, 20),
			features.PauseCount:         between(r, 15, 25),
			features.AvgPauseDuration:   between(r, 6000, 9000),
		}
	case profile == Typical:
		s.Want = scoring.TierLow
		s.Features = map[string]*float64{
			features.CVHoldTime:     between(r, 20, 34),
			features.CVFlightTime:   between(r, 50, 80),
			features.BackspaceRate:  between(r, 0, 8),
			features.PauseFrequency: between(r, 0, 5),
			features.WPM:            between(r, 45, 80),
		}
	default:
		s.Want = scoring.TierHigh
		s.Features = map[string]*float64{
			features.CVHoldTime:     between(r, 45, 70),
			features.CVFlightTime:   between(r, 100, 150),
			features.BackspaceRate:  between(r, 20, 35),
			features.PauseFrequency: between(r, 15, 30),
			features.WPM:            between(r, 5, 28),
		}
	}
	return s
}
