package service

import (
	"context"

	"agrisage/internal/model"
)

// AssistantService answers scheme questions with retrieval-backed evidence.
type AssistantService struct {
	rag     *PolicyRAGService
	schemes *SchemeService
}

// NewAssistantService creates a new assistant service
func NewAssistantService(rag *PolicyRAGService, schemes *SchemeService) *AssistantService {
	return &AssistantService{rag: rag, schemes: schemes}
}

// Chat runs the assistant pipeline for one normalized, validated request.
func (s *AssistantService) Chat(ctx context.Context, req *model.AssistantChatRequest) *model.AssistantChatResponse {
	language := model.NormalizeLanguage(req.Language)

	hits := s.rag.Query(ctx, req.Message, 5)
	suggestions, intent := s.schemes.FindRelevantSchemes(req.Message, req.Location, req.Acres, req.Crop, language, hits, 3)
	reply := s.schemes.BuildReply(req.Location, req.Acres, req.Crop, language, suggestions, intent)

	evidence := make([]model.PolicyEvidence, 0, 3)
	for _, hit := range hits {
		if hit.SchemeID == "" {
			continue
		}
		evidence = append(evidence, model.PolicyEvidence{
			SchemeID: hit.SchemeID,
			Title:    hit.Title,
			Snippet:  hit.Snippet,
			Source:   hit.Source,
			Score:    hit.Score,
		})
		if len(evidence) == 3 {
			break
		}
	}

	return &model.AssistantChatResponse{
		Success:    true,
		Language:   language,
		Intent:     intent,
		RAGBackend: s.rag.Backend(),
		Reply:      reply,
		Schemes:    suggestions,
		Evidence:   evidence,
	}
}
