package service

import (
	"fmt"
	"log"
	"math"
	"sort"

	"agrisage/internal/corpus"
	"agrisage/internal/model"
)

// Crop model backends reported in model_info.
const (
	BackendTreeModel    = "tree_model"
	BackendProfileTable = "profile_table"
)

// TopCropCount is the fixed number of ranked crops returned per request.
const TopCropCount = 3

// CropModelService ranks candidate crops against a feature vector. It scores
// with the exported tree ensemble when one is available, and with the
// embedded per-crop profile table otherwise.
type CropModelService struct {
	model    *TreeEnsemble
	profiles map[string]corpus.CropProfile
}

// NewCropModelService loads the profile table and probes modelPath for a
// tree-ensemble dump. A missing or broken model file is not an error; the
// service falls back to profile scoring.
func NewCropModelService(modelPath string) (*CropModelService, error) {
	profiles, err := corpus.CropProfiles()
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("crop profile table is empty")
	}

	svc := &CropModelService{profiles: profiles}

	ensemble, err := LoadTreeModel(modelPath)
	if err != nil {
		log.Printf("Warning: crop tree model unavailable (%v), using profile table", err)
		return svc, nil
	}
	svc.model = ensemble
	return svc, nil
}

// UsingFallback reports whether profile scoring is active.
func (s *CropModelService) UsingFallback() bool {
	return s.model == nil
}

// Model returns the loaded tree ensemble, nil when the fallback is active.
func (s *CropModelService) Model() *TreeEnsemble {
	return s.model
}

// Backend names the active scoring backend.
func (s *CropModelService) Backend() string {
	if s.model != nil {
		return BackendTreeModel
	}
	return BackendProfileTable
}

// PredictTopK returns the top-K crops by confidence, descending, with
// alphabetical tie-breaking. It errors only on malformed feature input.
func (s *CropModelService) PredictTopK(features model.SoilFeatures, k int) ([]model.CropPrediction, error) {
	if err := features.Validate(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = TopCropCount
	}

	var predictions []model.CropPrediction
	if s.model != nil {
		predictions = s.predictFromModel(features, k)
	}
	if predictions == nil {
		predictions = s.predictFromProfiles(features, k)
	}
	return predictions, nil
}

func (s *CropModelService) predictFromModel(features model.SoilFeatures, k int) []model.CropPrediction {
	ordered := orderedValues(features)
	probs := s.model.PredictProba(ordered)

	predictions := make([]model.CropPrediction, 0, len(probs))
	for i, p := range probs {
		predictions = append(predictions, model.CropPrediction{
			Crop:       s.model.Classes[i],
			Confidence: p,
		})
	}
	sortPredictions(predictions)
	if len(predictions) > k {
		predictions = predictions[:k]
	}
	roundConfidences(predictions)
	return predictions
}

// predictFromProfiles scores each crop by z-distance to its profile and
// normalizes inverse distances over the top-K into confidences.
func (s *CropModelService) predictFromProfiles(features model.SoilFeatures, k int) []model.CropPrediction {
	values := features.Map()

	type scored struct {
		crop   string
		weight float64
	}
	candidates := make([]scored, 0, len(s.profiles))
	for crop, profile := range s.profiles {
		dist := 0.0
		for _, field := range model.FeatureOrder {
			std := profile.Std[field]
			if std == 0 {
				std = 1
			}
			z := (values[field] - profile.Mean[field]) / std
			dist += z * z
		}
		dist = math.Sqrt(dist / float64(len(model.FeatureOrder)))
		candidates = append(candidates, scored{crop: crop, weight: 1.0 / (1.0 + dist)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].crop < candidates[j].crop
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	total := 0.0
	for _, c := range candidates {
		total += c.weight
	}

	predictions := make([]model.CropPrediction, 0, len(candidates))
	for _, c := range candidates {
		predictions = append(predictions, model.CropPrediction{
			Crop:       c.crop,
			Confidence: c.weight / total,
		})
	}
	sortPredictions(predictions)
	roundConfidences(predictions)
	return predictions
}

// Profile returns the feature statistics for a crop, if known.
func (s *CropModelService) Profile(crop string) (corpus.CropProfile, bool) {
	profile, ok := s.profiles[crop]
	return profile, ok
}

func orderedValues(features model.SoilFeatures) []float64 {
	values := features.Map()
	ordered := make([]float64, len(model.FeatureOrder))
	for i, field := range model.FeatureOrder {
		ordered[i] = values[field]
	}
	return ordered
}

func sortPredictions(predictions []model.CropPrediction) {
	sort.SliceStable(predictions, func(i, j int) bool {
		if predictions[i].Confidence != predictions[j].Confidence {
			return predictions[i].Confidence > predictions[j].Confidence
		}
		return predictions[i].Crop < predictions[j].Crop
	})
}

func roundConfidences(predictions []model.CropPrediction) {
	for i := range predictions {
		predictions[i].Confidence = math.Round(predictions[i].Confidence*1e6) / 1e6
	}
}
