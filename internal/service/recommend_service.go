package service

import (
	"context"
	"strings"

	"agrisage/internal/model"
)

// RecommendService runs the full recommendation pipeline for one request:
// feature extraction, crop ranking, market and risk outlook, explainability,
// and scheme matching.
type RecommendService struct {
	extractor *ExtractorService
	cropModel *CropModelService
	market    *MarketService
	explain   *ExplainService
	schemes   *SchemeService
	modelPath string
}

// NewRecommendService wires the pipeline stages together.
func NewRecommendService(
	extractor *ExtractorService,
	cropModel *CropModelService,
	market *MarketService,
	explain *ExplainService,
	schemes *SchemeService,
	modelPath string,
) *RecommendService {
	return &RecommendService{
		extractor: extractor,
		cropModel: cropModel,
		market:    market,
		explain:   explain,
		schemes:   schemes,
		modelPath: modelPath,
	}
}

// Recommend executes the pipeline. Validation errors must be rejected by the
// caller before this point; any error returned here is an internal failure.
func (s *RecommendService) Recommend(ctx context.Context, req *model.RecommendationRequest) (*model.RecommendationResponse, error) {
	location := req.ResolvedLocation()
	acres := req.ResolvedAcres()
	farmerInput := req.MergedFarmerInput()
	language := model.NormalizeLanguage(req.Language)

	extraction := s.extractor.InferFeatures(ctx, location, acres, farmerInput)
	notes := extraction.Notes
	if strings.TrimSpace(farmerInput) != "" {
		notes = append(notes, "Used structured farmer context from request payload.")
	}

	topCrops, err := s.cropModel.PredictTopK(extraction.Features, TopCropCount)
	if err != nil {
		return nil, err
	}

	explainability := s.explain.Explain(extraction.Features, topCrops[0].Crop)
	marketPrediction := s.market.BuildMarketPredictions(topCrops, extraction.Features, acres)

	schemeQuery := "crop " + topCrops[0].Crop + " government scheme subsidy insurance credit irrigation"
	suggestions, _ := s.schemes.FindRelevantSchemes(schemeQuery, location, acres, topCrops[0].Crop, language, nil, 4)

	return &model.RecommendationResponse{
		Success:            true,
		InputSource:        extraction.Source,
		Location:           location,
		Acres:              acres,
		NormalizedFeatures: extraction.Features,
		TopCrops:           topCrops,
		MarketPrediction:   marketPrediction,
		Explainability:     explainability,
		ExtractionNotes:    notes,
		ModelInfo: map[string]string{
			"model_path":    s.modelPath,
			"feature_order": strings.Join(model.FeatureOrder, ","),
			"model_backend": s.cropModel.Backend(),
		},
		SchemeSuggestions: suggestions,
	}, nil
}
