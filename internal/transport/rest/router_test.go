package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"agrisage/internal/config"
	"agrisage/internal/model"
	"agrisage/internal/service"
)

// newTestRouter wires the full pipeline without external providers: no API
// keys, no tree model file, no MongoDB, no Redis.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	aiConfig := &config.AIConfig{
		BaseURL:   "https://generativelanguage.googleapis.com/v1beta/models",
		TimeoutMS: 1000,
	}
	extractorSvc := service.NewExtractorService(aiConfig)
	cropModelSvc, err := service.NewCropModelService("testdata/does-not-exist.json")
	require.NoError(t, err)
	marketSvc, err := service.NewMarketService()
	require.NoError(t, err)
	explainSvc := service.NewExplainService(cropModelSvc)
	schemeSvc := service.NewSchemeService()
	ragSvc, err := service.NewPolicyRAGService(nil, nil)
	require.NoError(t, err)

	recommendSvc := service.NewRecommendService(extractorSvc, cropModelSvc, marketSvc, explainSvc, schemeSvc, "testdata/does-not-exist.json")
	assistantSvc := service.NewAssistantService(ragSvc, schemeSvc)

	return NewRouter(&Container{
		AIConfig:         aiConfig,
		RecommendService: recommendSvc,
		AssistantService: assistantSvc,
		CropModelService: cropModelSvc,
		RAGService:       ragSvc,
		CORSOrigins:      []string{"*"},
	})
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRootEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "profile_table", body["model_backend"])
	require.Equal(t, "in_memory", body["rag_backend"])
	require.Equal(t, false, body["gemini_enabled"])
	require.Equal(t, false, body["openai_enabled"])
}

func TestRecommendEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/recommend", map[string]interface{}{
		"location": "Warangal, Telangana",
		"acres":    2.5,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.RecommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.True(t, resp.Success)
	require.Equal(t, model.SourceHeuristic, resp.InputSource)
	require.Equal(t, "Warangal, Telangana", resp.Location)
	require.Equal(t, 2.5, resp.Acres)
	require.Len(t, resp.TopCrops, 3)

	crops := make([]string, 0, 3)
	for _, p := range resp.TopCrops {
		crops = append(crops, p.Crop)
	}
	require.Contains(t, crops, "rice")

	require.Len(t, resp.MarketPrediction.PerCrop, 3)
	require.NotEmpty(t, resp.MarketPrediction.RecommendedMarketCrop)
	require.Equal(t, model.MethodSurrogateZScore, resp.Explainability.Method)
	require.Equal(t, resp.TopCrops[0].Crop, resp.Explainability.TopCrop)
	require.Equal(t, "profile_table", resp.ModelInfo["model_backend"])
	require.NotEmpty(t, resp.ExtractionNotes)
	require.Len(t, resp.SchemeSuggestions, 4)
	for _, sg := range resp.SchemeSuggestions {
		require.NotEmpty(t, sg.Link)
	}
}

func TestRecommendEndpoint_DistrictStateAlias(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/recommend", map[string]interface{}{
		"district":  "Guntur",
		"state":     "Andhra Pradesh",
		"land_size": 4,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.RecommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Guntur, Andhra Pradesh", resp.Location)
	require.Equal(t, 4.0, resp.Acres)
}

func TestRecommendEndpoint_FarmerNarrativeScenario(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/recommend", map[string]interface{}{
		"location":     "Warangal, Telangana",
		"acres":        3,
		"farmer_input": "red soil, moderate rain, Kharif",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.RecommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.TopCrops)
	require.Len(t, resp.MarketPrediction.PerCrop, len(resp.TopCrops))
	require.Contains(t,
		[]string{model.MethodTreeExplainer, model.MethodSurrogateZScore},
		resp.Explainability.Method)
	require.Contains(t, resp.ExtractionNotes, "Used structured farmer context from request payload.")
}

func TestRecommendEndpoint_ValidationErrors(t *testing.T) {
	router := newTestRouter(t)

	cases := []map[string]interface{}{
		{"location": "Pune", "acres": -1},
		{"location": "Pune"},
		{"acres": 2},
		{"location": "P", "acres": 2},
	}
	for _, body := range cases {
		rec := postJSON(t, router, "/api/v1/recommend", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %v", body)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, false, resp["success"])
		require.NotEmpty(t, resp["error"])
	}
}

func TestRecommendEndpoint_MalformedBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommend", bytes.NewReader([]byte("{broken")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistantChatEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/assistant/chat", map[string]interface{}{
		"message":  "crop insurance premium claim loss",
		"language": "hi",
		"location": "Guntur",
		"acres":    3,
		"crop":     "rice",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AssistantChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.True(t, resp.Success)
	require.Equal(t, model.LangHindi, resp.Language)
	require.Equal(t, "risk_insurance", resp.Intent)
	require.Equal(t, "in_memory", resp.RAGBackend)
	require.NotEmpty(t, resp.Reply)
	require.Len(t, resp.Schemes, 3)
	require.Equal(t, "pmfby", resp.Schemes[0].ID)
	require.NotEmpty(t, resp.Evidence)
	require.LessOrEqual(t, len(resp.Evidence), 3)
	for _, ev := range resp.Evidence {
		require.NotEmpty(t, ev.SchemeID)
		require.NotEmpty(t, ev.Snippet)
	}
}

func TestAssistantChatEndpoint_SubsidyScenario(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/assistant/chat", map[string]interface{}{
		"message":  "what subsidy can I get for rice",
		"language": "en",
		"location": "Warangal, Telangana",
		"acres":    3,
		"crop":     "rice",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AssistantChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "scheme_lookup", resp.Intent)
	require.NotEmpty(t, resp.Schemes)
	for _, sg := range resp.Schemes {
		require.NotEmpty(t, sg.Link, "scheme %s", sg.ID)
	}
}

func TestAssistantChatEndpoint_Defaults(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/assistant/chat", map[string]interface{}{
		"message": "which schemes can help me",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AssistantChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, model.LangEnglish, resp.Language)
	require.Contains(t, resp.Reply, "India")
}

func TestAssistantChatEndpoint_RejectsShortMessage(t *testing.T) {
	router := newTestRouter(t)

	rec := postJSON(t, router, "/api/v1/assistant/chat", map[string]interface{}{"message": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommend", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
