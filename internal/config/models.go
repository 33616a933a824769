package config

import (
	"fmt"
	"strings"

	"github.com/okian/dyscreen/internal/domain/scoring"
)

// Models are the validated scoring models built from a Config.
type Models struct {
	Keystroke *scoring.Model
	Reading   *scoring.Model
}

// BuildModels converts the modality tables into scoring models. Any invariant
// violation, including weights that do not sum to 1, is an ErrInvalidConfig.
func (c *Config) BuildModels() (Models, error) {
	k, err := c.Keystroke.build(scoring.Keystroke)
	if err != nil {
		return Models{}, err
	}
	r, err := c.Reading.build(scoring.Reading)
	if err != nil {
		return Models{}, err
	}
	return Models{Keystroke: k, Reading: r}, nil
}

func (m ModalityConfig) build(modality scoring.Modality) (*scoring.Model, error) {
	specs := make([]scoring.FeatureSpec, 0, len(m.Features))
	for _, f := range m.Features {
		spec, err := f.spec()
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrInvalidConfig, modality, f.Name, err)
		}
		specs = append(specs, spec)
	}
	model, err := scoring.NewModel(modality, specs, scoring.WithRuleWeight(m.RuleWeight))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return model, nil
}

func (f FeatureConfig) spec() (scoring.FeatureSpec, error) {
	dir, err := scoring.ParseDirection(f.Direction)
	if err != nil {
		return scoring.FeatureSpec{}, err
	}
	policy, err := scoring.ParsePolicy(f.Policy)
	if err != nil {
		return scoring.FeatureSpec{}, err
	}
	conf, err := scoring.ParseConfidence(f.Confidence)
	if err != nil {
		return scoring.FeatureSpec{}, err
	}
	return scoring.FeatureSpec{
		Name:         strings.TrimSpace(f.Name),
		Range:        scoring.ReferenceRange{Normal: f.Normal, Atypical: f.Atypical, Direction: dir},
		Weight:       f.Weight,
		Policy:       policy,
		Confidence:   conf,
		Severity:     scoring.Severity{Moderate: f.Severity.Moderate, High: f.Severity.High},
		Messages:     scoring.Messages{Moderate: f.Messages.Moderate, High: f.Messages.High},
		Citation:     f.Citation,
		Experimental: f.Experimental,
	}, nil
}
