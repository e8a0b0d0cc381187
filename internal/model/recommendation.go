package model

import (
	"errors"
	"math"
	"strings"
)

// InputSource records which extraction path produced the feature vector.
type InputSource string

const (
	SourceGemini    InputSource = "gemini_inferred"
	SourceOpenAI    InputSource = "openai_inferred"
	SourceHeuristic InputSource = "heuristic_fallback"
)

// RecommendationRequest is the request body for POST /api/v1/recommend
type RecommendationRequest struct {
	Location    string  `json:"location"`
	District    string  `json:"district"`
	State       string  `json:"state"`
	Acres       float64 `json:"acres"`
	LandSize    float64 `json:"land_size"`
	Season      string  `json:"season"`
	Water       string  `json:"water"`
	SoilType    string  `json:"soil_type"`
	Language    string  `json:"language"`
	FarmerInput string  `json:"farmer_input"`
}

// ResolvedLocation prefers the explicit location, falling back to
// "district, state" when only those are given.
func (r *RecommendationRequest) ResolvedLocation() string {
	if loc := strings.TrimSpace(r.Location); loc != "" {
		return loc
	}
	district := strings.TrimSpace(r.District)
	state := strings.TrimSpace(r.State)
	switch {
	case district != "" && state != "":
		return district + ", " + state
	case district != "":
		return district
	default:
		return state
	}
}

// ResolvedAcres prefers acres, accepting land_size as an alias.
func (r *RecommendationRequest) ResolvedAcres() float64 {
	if r.Acres > 0 {
		return r.Acres
	}
	return r.LandSize
}

// MergedFarmerInput folds the structured season/water/soil tags into the
// free-text farmer narrative so every extraction path sees them.
func (r *RecommendationRequest) MergedFarmerInput() string {
	parts := []string{strings.TrimSpace(r.FarmerInput)}
	if s := strings.TrimSpace(r.Season); s != "" {
		parts = append(parts, "season "+s)
	}
	if w := strings.TrimSpace(r.Water); w != "" {
		parts = append(parts, "water "+w)
	}
	if s := strings.TrimSpace(r.SoilType); s != "" {
		parts = append(parts, s+" soil")
	}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ". ")
}

// Validate runs input validation before any pipeline stage.
func (r *RecommendationRequest) Validate() error {
	acres := r.ResolvedAcres()
	if math.IsNaN(acres) || math.IsInf(acres, 0) || acres <= 0 {
		return errors.New("acres must be a positive number")
	}
	if len(strings.TrimSpace(r.ResolvedLocation())) < 2 {
		return errors.New("location (or district and state) is required")
	}
	return nil
}

// CropPrediction is one ranked crop with its model confidence.
type CropPrediction struct {
	Crop       string  `json:"crop"`
	Confidence float64 `json:"confidence"`
}

// ScenarioRevenues carries the stress-test revenues per acre for a crop.
type ScenarioRevenues struct {
	RainfallDrop  float64 `json:"rainfall_drop_revenue_per_acre"`
	PriceCrash    float64 `json:"price_crash_revenue_per_acre"`
	CombinedShock float64 `json:"combined_shock_revenue_per_acre"`
}

// MarketCropPrediction is the market and risk outlook for one crop.
type MarketCropPrediction struct {
	Crop                    string           `json:"crop"`
	PricePerQuintal         float64          `json:"price_per_quintal"`
	YieldPerAcre            float64          `json:"yield_per_acre"`
	ExpectedRevenuePerAcre  float64          `json:"expected_revenue_per_acre"`
	WorstCaseRevenuePerAcre float64          `json:"worst_case_revenue_per_acre"`
	ExpectedRevenueTotal    float64          `json:"expected_revenue_total"`
	WorstCaseRevenueTotal   float64          `json:"worst_case_revenue_total"`
	CVI                     float64          `json:"cvi"`
	RiskLevel               string           `json:"risk_level"`
	Confidence              float64          `json:"confidence"`
	Scenarios               ScenarioRevenues `json:"scenarios"`
}

// MarketPrediction aggregates the per-crop outlooks.
type MarketPrediction struct {
	PerCrop               []MarketCropPrediction `json:"per_crop"`
	OverallCVI            float64                `json:"overall_cvi"`
	RecommendedMarketCrop string                 `json:"recommended_market_crop"`
}

// FeatureContribution attributes part of the top recommendation to a feature.
type FeatureContribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
	Impact  float64 `json:"impact"`
}

// Explainability method names, fixed by the wire contract.
const (
	MethodTreeExplainer   = "shap_tree_explainer"
	MethodSurrogateZScore = "surrogate_zscore"
)

// ExplainabilityPayload explains the top-ranked crop.
type ExplainabilityPayload struct {
	Method               string                `json:"method"`
	TopCrop              string                `json:"top_crop"`
	Summary              string                `json:"summary"`
	FeatureContributions []FeatureContribution `json:"feature_contributions"`
}

// RecommendationResponse is the response body for POST /api/v1/recommend
type RecommendationResponse struct {
	Success            bool                  `json:"success"`
	InputSource        InputSource           `json:"input_source"`
	Location           string                `json:"location"`
	Acres              float64               `json:"acres"`
	NormalizedFeatures SoilFeatures          `json:"normalized_features"`
	TopCrops           []CropPrediction      `json:"top_crops"`
	MarketPrediction   MarketPrediction      `json:"market_prediction"`
	Explainability     ExplainabilityPayload `json:"explainability"`
	ExtractionNotes    []string              `json:"extraction_notes"`
	ModelInfo          map[string]string     `json:"model_info"`
	SchemeSuggestions  []SchemeSuggestion    `json:"scheme_suggestions"`
}
