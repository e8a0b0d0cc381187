package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrisage/internal/cache"
	"agrisage/internal/config"
	"agrisage/internal/repository"
	"agrisage/internal/service"
	"agrisage/internal/transport/rest"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// Load AI config and log model settings
	aiConfig := config.DefaultAIConfig()
	log.Printf("AI Config:")
	log.Printf("  Gemini Extract: %s", aiConfig.Models.GeminiExtract)
	log.Printf("  OpenAI Extract: %s", aiConfig.Models.OpenAIExtract)
	if aiConfig.GeminiEnabled() {
		log.Println("  Gemini Key:     configured ✓")
	} else {
		log.Println("  Gemini Key:     NOT SET")
	}
	if aiConfig.OpenAIEnabled() {
		log.Println("  OpenAI Key:     configured ✓")
	} else {
		log.Println("  OpenAI Key:     NOT SET (heuristic fallback stays available)")
	}

	// MongoDB connection. Unreachable Mongo is not fatal; the retriever
	// runs against the embedded corpus instead.
	var policyRepo repository.PolicyRepo
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Printf("Warning: MongoDB connect failed (%v), retrieval runs in memory", err)
		} else {
			defer mongoClient.Disconnect(ctx)
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := mongoClient.Ping(pingCtx, nil); err != nil {
				log.Printf("Warning: MongoDB ping failed (%v), retrieval runs in memory", err)
			} else {
				log.Println("Connected to MongoDB")
				policyRepo = repository.NewPolicyRepo(mongoClient.Database("agrisage"))
			}
			cancel()
		}
	} else {
		log.Println("MONGO_URI not set, retrieval runs in memory")
	}

	// Redis connection, optional retrieval cache.
	var retrievalCache cache.RetrievalCache
	if cfg.RedisAddr != "" {
		redisAddr := cfg.RedisAddr
		if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
			redisAddr = redisAddr[8:]
		}
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("Warning: Redis ping failed (%v), retrieval cache disabled", err)
			rdb.Close()
		} else {
			log.Println("Connected to Redis")
			defer rdb.Close()
			retrievalCache = cache.NewRetrievalCache(rdb)
		}
	} else {
		log.Println("REDIS_URI not set, retrieval cache disabled")
	}

	// Initialize services
	extractorSvc := service.NewExtractorService(aiConfig)
	cropModelSvc, err := service.NewCropModelService(cfg.ModelPath)
	if err != nil {
		log.Fatal("Failed to initialize crop model:", err)
	}
	marketSvc, err := service.NewMarketService()
	if err != nil {
		log.Fatal("Failed to load market reference table:", err)
	}
	explainSvc := service.NewExplainService(cropModelSvc)
	schemeSvc := service.NewSchemeService()
	ragSvc, err := service.NewPolicyRAGService(policyRepo, retrievalCache)
	if err != nil {
		log.Fatal("Failed to load policy corpus:", err)
	}
	ragSvc.Init(ctx)
	log.Printf("Policy retrieval backend: %s", ragSvc.Backend())
	log.Printf("Crop model backend: %s", cropModelSvc.Backend())

	recommendSvc := service.NewRecommendService(extractorSvc, cropModelSvc, marketSvc, explainSvc, schemeSvc, cfg.ModelPath)
	assistantSvc := service.NewAssistantService(ragSvc, schemeSvc)

	// Create router with container
	container := &rest.Container{
		AIConfig:         aiConfig,
		RecommendService: recommendSvc,
		AssistantService: assistantSvc,
		CropModelService: cropModelSvc,
		RAGService:       ragSvc,
		CORSOrigins:      cfg.CORSOrigins,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  GET  /")
		log.Println("  GET  /api/v1/health")
		log.Println("  POST /api/v1/recommend")
		log.Println("  POST /api/v1/assistant/chat")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
