package scoring

import "github.com/okian/dyscreen/internal/domain/features"

// KeystrokeRuleWeight is the rule-based share of the keystroke blend.
const KeystrokeRuleWeight = 0.7

// DefaultKeystrokeSpecs returns the keystroke feature set. Normal boundaries
// are the 95th percentile of typical typists; atypical boundaries are the
// dyslexic thresholds.
func DefaultKeystrokeSpecs() []FeatureSpec {
	return []FeatureSpec{
		{
			Name:     features.CVHoldTime,
			Range:    ReferenceRange{Normal: 34.77, Atypical: 45, Direction: HigherIsWorse},
			Weight:   0.294,
			Policy:   Required,
			Severity: Severity{Moderate: 35, High: 45},
			Messages: Messages{
				Moderate: "Key hold times are less consistent than typical.",
				High:     "Highly inconsistent key hold times detected. This may indicate motor planning or letter retrieval difficulty.",
			},
		},
		{
			Name:     features.CVFlightTime,
			Range:    ReferenceRange{Normal: 82.09, Atypical: 100, Direction: HigherIsWorse},
			Weight:   0.235,
			Policy:   Required,
			Severity: Severity{Moderate: 85, High: 100},
			Messages: Messages{
				Moderate: "Typing rhythm between keys is irregular.",
				High:     "Very irregular typing rhythm detected. This may indicate processing delays between letters.",
			},
		},
		{
			Name:     features.BackspaceRate,
			Range:    ReferenceRange{Normal: 8, Atypical: 20, Direction: HigherIsWorse},
			Weight:   0.235,
			Policy:   Optional,
			Severity: Severity{Moderate: 15, High: 20},
			Messages: Messages{
				Moderate: "Frequent self-correction while typing.",
				High:     "Very frequent self-correction detected. This may indicate letter confusion.",
			},
		},
		{
			Name:     features.PauseFrequency,
			Range:    ReferenceRange{Normal: 5, Atypical: 15, Direction: HigherIsWorse},
			Weight:   0.118,
			Policy:   Optional,
			Severity: Severity{Moderate: 10, High: 15},
			Messages: Messages{
				Moderate: "Some hesitation pauses while typing.",
				High:     "Frequent hesitation pauses detected. This may indicate word retrieval or spelling difficulty.",
			},
		},
		{
			Name:     features.WPM,
			Range:    ReferenceRange{Normal: 40.79, Atypical: 40, Direction: LowerIsWorse},
			Weight:   0.118,
			Policy:   Required,
			Severity: Severity{Moderate: 40.79, High: 28},
			Messages: Messages{
				Moderate: "Typing speed is below the typical range.",
				High:     "Typing speed is well below the typical range. Consider typing fluency practice.",
			},
		},
	}
}

// DefaultReadingSpecs returns the literature-weighted reading feature set.
func DefaultReadingSpecs() []FeatureSpec {
	return []FeatureSpec{
		{
			Name:       features.ReadingTime,
			Range:      ReferenceRange{Normal: 70.4, Atypical: 151.8, Direction: HigherIsWorse},
			Weight:     0.308,
			Policy:     Required,
			Confidence: ConfidenceHigh,
			Severity:   Severity{Moderate: 111, High: 151.8},
			Messages: Messages{
				Moderate: "Reading took longer than typical. Consider reading fluency exercises.",
				High:     "Reading time is in the range observed for dyslexic readers. Consider reading fluency exercises.",
			},
			Citation: "Nerušil et al. (2021), Scientific Reports 11:15687",
		},
		{
			Name:       features.ComprehensionScore,
			Range:      ReferenceRange{Normal: 100, Atypical: 0, Direction: LowerIsWorse},
			Weight:     0.30,
			Policy:     Required,
			Confidence: ConfidenceHigh,
			Severity:   Severity{Moderate: 70, High: 50},
			Messages: Messages{
				Moderate: "Comprehension is below typical. Practice reading comprehension strategies.",
				High:     "Comprehension score is low. Focus on reading comprehension strategies and vocabulary building.",
			},
			Citation: "Nerušil et al. (2021), Scientific Reports 11:15687",
		},
		{
			Name:       features.RevisitCount,
			Range:      ReferenceRange{Normal: 0, Atypical: 12.4, Direction: HigherIsWorse},
			Weight:     0.171,
			Policy:     Optional,
			Confidence: ConfidenceModerate,
			Severity:   Severity{Moderate: 6, High: 10},
			Messages: Messages{
				Moderate: "Some re-reading detected.",
				High:     "Frequent re-reading detected. This may indicate difficulty with text comprehension or working memory.",
			},
			Citation: "Nilsson Benfatto et al. (2016), PLoS ONE",
		},
		{
			Name:       features.PauseCount,
			Range:      ReferenceRange{Normal: 5, Atypical: 15, Direction: HigherIsWorse},
			Weight:     0.169,
			Policy:     Optional,
			Confidence: ConfidenceLow,
			Severity:   Severity{Moderate: 7, High: 10},
			Messages: Messages{
				Moderate: "Several reading pauses detected.",
				High:     "Frequent pauses detected. This may indicate word decoding difficulties.",
			},
			Citation:     "Experimental metric",
			Experimental: true,
		},
		{
			Name:       features.AvgPauseDuration,
			Range:      ReferenceRange{Normal: 3000, Atypical: 6000, Direction: HigherIsWorse},
			Weight:     0.052,
			Policy:     Optional,
			Confidence: ConfidenceLow,
			Severity:   Severity{Moderate: 3500, High: 5000},
			Messages: Messages{
				Moderate: "Pauses are longer than typical.",
				High:     "Long pauses detected. This may indicate word decoding difficulties.",
			},
			Citation:     "Nielsen (1993), Usability Engineering",
			Experimental: true,
		},
	}
}

// NewKeystrokeModel builds the default keystroke model with the 70/30 blend.
func NewKeystrokeModel() (*Model, error) {
	return NewModel(Keystroke, DefaultKeystrokeSpecs(), WithRuleWeight(KeystrokeRuleWeight))
}

// NewReadingModel builds the default reading model.
func NewReadingModel() (*Model, error) {
	return NewModel(Reading, DefaultReadingSpecs())
}
