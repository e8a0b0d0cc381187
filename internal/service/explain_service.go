package service

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"agrisage/internal/corpus"
	"agrisage/internal/model"
)

// ExplainService attributes the top recommendation to feature contributions.
// The method is fixed at startup: tree path attribution when the crop model
// stack is loaded, surrogate z-scores over the profile table otherwise. Both
// paths produce the same (feature, value, impact) shape.
type ExplainService struct {
	model    *TreeEnsemble
	profiles map[string]corpus.CropProfile
	method   string
}

// NewExplainService probes the crop model once and pins the method.
func NewExplainService(cropModel *CropModelService) *ExplainService {
	svc := &ExplainService{
		model:    cropModel.Model(),
		profiles: map[string]corpus.CropProfile{},
		method:   model.MethodSurrogateZScore,
	}
	for crop := range cropModel.profiles {
		svc.profiles[crop] = cropModel.profiles[crop]
	}
	if svc.model != nil {
		svc.method = model.MethodTreeExplainer
	}
	return svc
}

// Method names the attribution method every response will report.
func (s *ExplainService) Method() string {
	return s.method
}

// Explain produces feature contributions for the top-ranked crop.
func (s *ExplainService) Explain(features model.SoilFeatures, topCrop string) model.ExplainabilityPayload {
	var contributions []model.FeatureContribution
	if s.method == model.MethodTreeExplainer {
		contributions = s.treeContributions(features, topCrop)
	} else {
		contributions = s.zscoreContributions(features, topCrop)
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		ai, aj := math.Abs(contributions[i].Impact), math.Abs(contributions[j].Impact)
		if ai != aj {
			return ai > aj
		}
		return contributions[i].Feature < contributions[j].Feature
	})

	return model.ExplainabilityPayload{
		Method:               s.method,
		TopCrop:              topCrop,
		Summary:              buildSummary(topCrop, contributions),
		FeatureContributions: contributions,
	}
}

func (s *ExplainService) treeContributions(features model.SoilFeatures, topCrop string) []model.FeatureContribution {
	classIdx := s.model.ClassIndex(topCrop)
	if classIdx < 0 {
		// Crop not in the model's class list; the surrogate still applies.
		return s.zscoreContributions(features, topCrop)
	}

	ordered := orderedValues(features)
	impacts := s.model.PathContributions(ordered, classIdx)

	contributions := make([]model.FeatureContribution, 0, len(model.FeatureOrder))
	for i, field := range model.FeatureOrder {
		contributions = append(contributions, model.FeatureContribution{
			Feature: field,
			Value:   ordered[i],
			Impact:  round4(impacts[i]),
		})
	}
	return contributions
}

// zscoreContributions scores each feature by its distance from the top
// crop's profile: within one standard deviation contributes positively,
// beyond it negatively.
func (s *ExplainService) zscoreContributions(features model.SoilFeatures, topCrop string) []model.FeatureContribution {
	values := features.Map()
	profile, ok := s.profiles[topCrop]

	contributions := make([]model.FeatureContribution, 0, len(model.FeatureOrder))
	for _, field := range model.FeatureOrder {
		value := values[field]
		impact := 0.0
		if ok {
			std := profile.Std[field]
			if std == 0 {
				std = 1
			}
			z := (value - profile.Mean[field]) / std
			impact = 1 - math.Abs(z)
		}
		contributions = append(contributions, model.FeatureContribution{
			Feature: field,
			Value:   value,
			Impact:  round4(impact),
		})
	}
	return contributions
}

func buildSummary(topCrop string, contributions []model.FeatureContribution) string {
	var drivers []string
	for _, c := range contributions {
		if c.Impact > 0 {
			drivers = append(drivers, c.Feature)
		}
		if len(drivers) == 2 {
			break
		}
	}
	if len(drivers) == 0 {
		return fmt.Sprintf("%s is the closest match for the given conditions.", topCrop)
	}
	return fmt.Sprintf("%s is favored mainly by %s.", topCrop, strings.Join(drivers, " and "))
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
