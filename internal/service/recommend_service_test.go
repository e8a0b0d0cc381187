package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"agrisage/internal/model"
)

func newOfflinePipeline(t *testing.T) *RecommendService {
	t.Helper()

	cropModel := newFallbackCropModel(t)
	market, err := NewMarketService()
	require.NoError(t, err)

	return NewRecommendService(
		newOfflineExtractor(),
		cropModel,
		market,
		NewExplainService(cropModel),
		NewSchemeService(),
		"testdata/does-not-exist.json",
	)
}

func TestRecommend_PipelineOutput(t *testing.T) {
	svc := newOfflinePipeline(t)

	resp, err := svc.Recommend(context.Background(), &model.RecommendationRequest{
		Location: "Warangal, Telangana",
		Acres:    2.5,
	})
	require.NoError(t, err)

	require.True(t, resp.Success)
	require.Equal(t, model.SourceHeuristic, resp.InputSource)
	require.Len(t, resp.TopCrops, 3)
	require.Equal(t, resp.TopCrops[0].Crop, resp.Explainability.TopCrop)
	require.Len(t, resp.MarketPrediction.PerCrop, 3)
	require.Equal(t, BackendProfileTable, resp.ModelInfo["model_backend"])
	require.Equal(t, "N,P,K,temperature,humidity,rainfall,ph", resp.ModelInfo["feature_order"])
	require.Len(t, resp.SchemeSuggestions, 4)
}

func TestRecommend_FarmerContextNote(t *testing.T) {
	svc := newOfflinePipeline(t)

	withContext, err := svc.Recommend(context.Background(), &model.RecommendationRequest{
		Location:    "Warangal, Telangana",
		Acres:       2,
		FarmerInput: "black soil, canal water",
	})
	require.NoError(t, err)
	require.Contains(t, withContext.ExtractionNotes, "Used structured farmer context from request payload.")

	without, err := svc.Recommend(context.Background(), &model.RecommendationRequest{
		Location: "Warangal, Telangana",
		Acres:    2,
	})
	require.NoError(t, err)
	require.NotContains(t, without.ExtractionNotes, "Used structured farmer context from request payload.")
}

func TestRecommend_Deterministic(t *testing.T) {
	svc := newOfflinePipeline(t)
	req := &model.RecommendationRequest{Location: "Guntur, Andhra Pradesh", Acres: 3}

	first, err := svc.Recommend(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Recommend(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, first.NormalizedFeatures, second.NormalizedFeatures)
	require.Equal(t, first.TopCrops, second.TopCrops)
	require.Equal(t, first.MarketPrediction, second.MarketPrediction)
}

func TestAssistantChat_Pipeline(t *testing.T) {
	rag, err := NewPolicyRAGService(nil, nil)
	require.NoError(t, err)
	svc := NewAssistantService(rag, NewSchemeService())

	req := &model.AssistantChatRequest{Message: "drip irrigation subsidy", Language: "te"}
	req.Normalize()

	resp := svc.Chat(context.Background(), req)
	require.True(t, resp.Success)
	require.Equal(t, model.LangTelugu, resp.Language)
	require.Equal(t, IntentIrrigation, resp.Intent)
	require.Equal(t, RAGBackendInMemory, resp.RAGBackend)
	require.Equal(t, "pmksy", resp.Schemes[0].ID)
	require.NotEmpty(t, resp.Evidence)
}
