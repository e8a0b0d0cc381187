package rest

import (
	"net/http"
	"strings"

	"agrisage/internal/config"
	"agrisage/internal/service"
	"agrisage/internal/transport/rest/handler"
	"agrisage/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AIConfig         *config.AIConfig
	RecommendService *service.RecommendService
	AssistantService *service.AssistantService
	CropModelService *service.CropModelService
	RAGService       *service.PolicyRAGService
	CORSOrigins      []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	recommendHandler := handler.NewRecommendHandler(c.RecommendService)
	assistantHandler := handler.NewAssistantHandler(c.AssistantService)
	healthHandler := handler.NewHealthHandler(c.AIConfig, c.CropModelService, c.RAGService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSOrigins))
	r.Use(middleware.RequestID)

	r.HandleFunc("/", healthHandler.Root).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/health", healthHandler.Health).Methods("GET")
	v1.HandleFunc("/recommend", recommendHandler.Recommend).Methods("POST", "OPTIONS")
	v1.HandleFunc("/assistant/chat", assistantHandler.Chat).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowed := "*"
	if len(origins) > 0 {
		allowed = strings.Join(origins, ", ")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
