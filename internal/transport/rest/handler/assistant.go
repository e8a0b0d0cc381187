package handler

import (
	"encoding/json"
	"net/http"

	"agrisage/internal/model"
	"agrisage/internal/service"
)

// AssistantHandler handles the scheme assistant endpoints
type AssistantHandler struct {
	assistantSvc *service.AssistantService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistantSvc *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantSvc: assistantSvc}
}

// Chat handles POST /api/v1/assistant/chat
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req model.AssistantChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Normalize()

	writeJSON(w, http.StatusOK, h.assistantSvc.Chat(r.Context(), &req))
}
