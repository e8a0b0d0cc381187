// Package corpus embeds the static reference data the pipeline reads at
// startup: the policy document corpus, per-crop feature profiles, and the
// market reference table.
package corpus

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"agrisage/internal/model"
)

//go:embed policy_docs.json
var policyDocsJSON []byte

//go:embed crop_profiles.yaml
var cropProfilesYAML []byte

//go:embed market_reference.yaml
var marketReferenceYAML []byte

// CropProfile holds per-crop feature statistics used for fallback ranking
// and surrogate explainability.
type CropProfile struct {
	Mean map[string]float64 `yaml:"mean"`
	Std  map[string]float64 `yaml:"std"`
}

// MarketRef holds price, yield and volatility reference values for a crop.
type MarketRef struct {
	PricePerQuintal float64 `yaml:"price_per_quintal"`
	YieldPerAcre    float64 `yaml:"yield_per_acre"`
	Volatility      float64 `yaml:"volatility"`
}

// PolicyChunks returns the embedded policy corpus.
func PolicyChunks() ([]model.PolicyChunk, error) {
	var chunks []model.PolicyChunk
	if err := json.Unmarshal(policyDocsJSON, &chunks); err != nil {
		return nil, fmt.Errorf("parse policy corpus: %w", err)
	}
	var valid []model.PolicyChunk
	for _, c := range chunks {
		if c.ID != "" && c.Content != "" {
			valid = append(valid, c)
		}
	}
	return valid, nil
}

// CropProfiles returns the embedded per-crop feature statistics.
func CropProfiles() (map[string]CropProfile, error) {
	profiles := make(map[string]CropProfile)
	if err := yaml.Unmarshal(cropProfilesYAML, &profiles); err != nil {
		return nil, fmt.Errorf("parse crop profiles: %w", err)
	}
	return profiles, nil
}

// MarketReference returns the embedded market reference table.
func MarketReference() (map[string]MarketRef, error) {
	table := make(map[string]MarketRef)
	if err := yaml.Unmarshal(marketReferenceYAML, &table); err != nil {
		return nil, fmt.Errorf("parse market reference: %w", err)
	}
	return table, nil
}
