package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"agrisage/internal/model"
	"agrisage/internal/service"
)

// RecommendHandler handles crop recommendation endpoints
type RecommendHandler struct {
	recommendSvc *service.RecommendService
}

// NewRecommendHandler creates a new recommend handler
func NewRecommendHandler(recommendSvc *service.RecommendService) *RecommendHandler {
	return &RecommendHandler{recommendSvc: recommendSvc}
}

// Recommend handles POST /api/v1/recommend
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req model.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.recommendSvc.Recommend(r.Context(), &req)
	if err != nil {
		log.Printf("recommend pipeline failed (request %s): %v", r.Header.Get("X-Request-ID"), err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
