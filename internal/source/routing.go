package source

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/collectorvault/appraise/internal/model"
)

// Routing holds the tunable source-routing parameters: per-provider
// confidence and weight heuristics plus the category vocabularies used for
// applicability checks. Compiled-in defaults apply when no file is given.
type Routing struct {
	Providers  map[string]ProviderParams `yaml:"providers"`
	Vocabulary map[string][]string       `yaml:"vocabulary"`
}

// ProviderParams tunes one provider's observation heuristics.
type ProviderParams struct {
	// FixedConfidence is used by curated/catalog providers whose
	// confidence does not depend on sample size.
	FixedConfidence int `yaml:"fixed_confidence"`
	// BaseConfidence and PerListing scale confidence with the number of
	// matched sold listings, saturating at ConfidenceCeiling.
	BaseConfidence    int `yaml:"base_confidence"`
	PerListing        int `yaml:"per_listing"`
	ConfidenceCeiling int `yaml:"confidence_ceiling"`
	// Weight is the raw weight tier for fixed-weight providers.
	Weight float64 `yaml:"weight"`
	// WeightTiers maps sample-size thresholds to raw weights for
	// sold-listings providers.
	WeightTiers WeightTiers `yaml:"weight_tiers"`
	// RecentDays bounds the sold-listings lookback window.
	RecentDays int `yaml:"recent_days"`
}

// WeightTiers tiers a provider's raw weight by sample size: High at or
// above HighMin listings, Mid at or above MidMin, Low below that.
type WeightTiers struct {
	HighMin int     `yaml:"high_min"`
	MidMin  int     `yaml:"mid_min"`
	High    float64 `yaml:"high"`
	Mid     float64 `yaml:"mid"`
	Low     float64 `yaml:"low"`
}

// WeightFor returns the raw weight tier for a sample size.
func (t WeightTiers) WeightFor(sampleSize int) float64 {
	switch {
	case sampleSize >= t.HighMin:
		return t.High
	case sampleSize >= t.MidMin:
		return t.Mid
	default:
		return t.Low
	}
}

// DefaultRouting returns the compiled-in routing parameters.
func DefaultRouting() *Routing {
	return &Routing{
		Providers: map[string]ProviderParams{
			string(model.SourcePriceCharting): {
				FixedConfidence: 85,
				Weight:          0.4,
			},
			string(model.SourceEbay): {
				BaseConfidence:    50,
				PerListing:        5,
				ConfidenceCeiling: 95,
				WeightTiers:       WeightTiers{HighMin: 10, MidMin: 5, High: 0.8, Mid: 0.6, Low: 0.4},
				RecentDays:        90,
			},
			string(model.SourceSoldScan): {
				BaseConfidence:    45,
				PerListing:        5,
				ConfidenceCeiling: 90,
				WeightTiers:       WeightTiers{HighMin: 10, MidMin: 5, High: 0.7, Mid: 0.5, Low: 0.3},
				RecentDays:        90,
			},
			string(model.SourceJustTCG): {
				FixedConfidence: 90,
				Weight:          0.7,
			},
			string(model.SourceSneakFind): {
				FixedConfidence: 88,
				Weight:          0.7,
			},
		},
		Vocabulary: map[string][]string{
			string(model.CategoryTradingCards): {
				"pokemon", "magic the gathering", "mtg", "yugioh",
				"yu-gi-oh", "tcg", "trading card", "topps", "panini", "psa",
			},
			string(model.CategorySneakers): {
				"nike", "jordan", "adidas", "yeezy", "dunk", "new balance",
				"sneaker", "air max", "air force",
			},
		},
	}
}

// LoadRouting reads routing parameters from a YAML file, filling gaps from
// the defaults.
func LoadRouting(path string) (*Routing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read routing %s", path)
	}

	var wrapper struct {
		Routing Routing `yaml:"routing"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "source: parse routing")
	}

	cfg := &wrapper.Routing
	defaults := DefaultRouting()
	if cfg.Providers == nil {
		cfg.Providers = defaults.Providers
	} else {
		for name, params := range defaults.Providers {
			if _, ok := cfg.Providers[name]; !ok {
				cfg.Providers[name] = params
			}
		}
	}
	if cfg.Vocabulary == nil {
		cfg.Vocabulary = defaults.Vocabulary
	}

	return cfg, nil
}

// Params returns the parameters for a provider, falling back to defaults.
func (r *Routing) Params(kind model.SourceKind) ProviderParams {
	if p, ok := r.Providers[string(kind)]; ok {
		return p
	}
	return DefaultRouting().Providers[string(kind)]
}

// MatchesVocabulary reports whether the item's category equals cat or its
// title contains any of the category's vocabulary terms. Comparison folds
// case and diacritics on both sides.
func (r *Routing) MatchesVocabulary(item model.Item, cat model.Category) bool {
	if item.Category == cat {
		return true
	}
	title := foldForMatch(item.Title)
	for _, term := range r.Vocabulary[string(cat)] {
		if strings.Contains(title, foldForMatch(term)) {
			return true
		}
	}
	return false
}
