package handler

import (
	"net/http"

	"agrisage/internal/config"
	"agrisage/internal/service"
)

// HealthHandler reports service and backend status
type HealthHandler struct {
	aiConfig  *config.AIConfig
	cropModel *service.CropModelService
	rag       *service.PolicyRAGService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(aiConfig *config.AIConfig, cropModel *service.CropModelService, rag *service.PolicyRAGService) *HealthHandler {
	return &HealthHandler{aiConfig: aiConfig, cropModel: cropModel, rag: rag}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "AgriSage API",
		"version": "1.0.0",
		"status":  "ok",
	})
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"model_backend":  h.cropModel.Backend(),
		"rag_backend":    h.rag.Backend(),
		"gemini_enabled": h.aiConfig.GeminiEnabled(),
		"openai_enabled": h.aiConfig.OpenAIEnabled(),
	})
}
