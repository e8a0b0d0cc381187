package service

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"agrisage/internal/cache"
	"agrisage/internal/corpus"
	"agrisage/internal/model"
	"agrisage/internal/repository"
)

// Retrieval backend names reported in rag_backend.
const (
	RAGBackendMongo    = "mongodb"
	RAGBackendInMemory = "in_memory"
)

const ragInitTimeout = 10 * time.Second

// PolicyRAGService retrieves policy evidence for a query. At first use it
// selects a backend exactly once: the MongoDB vector store when reachable,
// otherwise a permanent in-memory index over the same corpus. Both backends
// return the same hit shape.
type PolicyRAGService struct {
	docs    []model.PolicyChunk
	vectors map[string][]float64

	repo  repository.PolicyRepo
	cache cache.RetrievalCache

	initOnce sync.Once
	backend  string
	useRepo  bool
}

// NewPolicyRAGService loads the embedded corpus and embeds every chunk.
// repo and retrievalCache may be nil; both degrade gracefully.
func NewPolicyRAGService(repo repository.PolicyRepo, retrievalCache cache.RetrievalCache) (*PolicyRAGService, error) {
	docs, err := corpus.PolicyChunks()
	if err != nil {
		return nil, err
	}

	vectors := make(map[string][]float64, len(docs))
	for _, doc := range docs {
		vectors[doc.ID] = embedText(doc.Content)
	}

	return &PolicyRAGService{
		docs:    docs,
		vectors: vectors,
		repo:    repo,
		cache:   retrievalCache,
		backend: RAGBackendInMemory,
	}, nil
}

// Init selects the retrieval backend. Safe under concurrent first requests:
// only one attempt runs, everyone else waits for its result.
func (s *PolicyRAGService) Init(ctx context.Context) {
	s.initOnce.Do(func() {
		if s.repo == nil {
			log.Println("Policy retriever: no vector store configured, using in-memory index")
			return
		}

		initCtx, cancel := context.WithTimeout(ctx, ragInitTimeout)
		defer cancel()

		if err := s.repo.EnsureCorpus(initCtx, s.docs, s.vectors); err != nil {
			log.Printf("Warning: vector store init failed (%v), using in-memory index", err)
			s.useRepo = false
			return
		}

		s.backend = RAGBackendMongo
		s.useRepo = true
		log.Printf("Policy retriever ready: backend=%s, %d chunks", s.backend, len(s.docs))
	})
}

// Backend names the backend serving retrieval requests.
func (s *PolicyRAGService) Backend() string {
	s.Init(context.Background())
	return s.backend
}

// Query returns the topK corpus chunks nearest the query text.
func (s *PolicyRAGService) Query(ctx context.Context, queryText string, topK int) []model.RetrievalHit {
	s.Init(ctx)

	if len(s.docs) == 0 {
		return nil
	}
	if topK <= 0 {
		topK = 4
	}

	if s.cache != nil {
		if hits, ok := s.cache.GetHits(ctx, queryText, topK); ok {
			return hits
		}
	}

	embedding := embedText(queryText)

	var hits []model.RetrievalHit
	if s.useRepo {
		repoHits, err := s.repo.QueryNearest(ctx, embedding, topK)
		if err != nil {
			log.Printf("Warning: vector store query failed (%v), serving from in-memory index", err)
		} else {
			hits = repoHits
		}
	}
	if hits == nil {
		hits = s.queryInMemory(embedding, topK)
	}

	for i := range hits {
		hits[i].Score = round4(hits[i].Score)
	}

	if s.cache != nil {
		s.cache.SetHits(ctx, queryText, topK, hits)
	}
	return hits
}

func (s *PolicyRAGService) queryInMemory(embedding []float64, topK int) []model.RetrievalHit {
	hits := make([]model.RetrievalHit, 0, len(s.docs))
	for _, doc := range s.docs {
		hits = append(hits, model.RetrievalHit{
			SchemeID: doc.SchemeID,
			Title:    doc.Title,
			Source:   doc.Source,
			Snippet:  truncate(doc.Content, 240),
			Score:    cosineSimilarity(embedding, s.vectors[doc.ID]),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Title < hits[j].Title
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}

// BestScorePerScheme deduplicates hits by scheme id, keeping the highest
// score for each.
func BestScorePerScheme(hits []model.RetrievalHit) map[string]float64 {
	best := make(map[string]float64)
	for _, hit := range hits {
		if hit.SchemeID == "" {
			continue
		}
		if score, ok := best[hit.SchemeID]; !ok || hit.Score > score {
			best[hit.SchemeID] = hit.Score
		}
	}
	return best
}

func truncate(text string, maxLen int) string {
	if len(text) > maxLen {
		return text[:maxLen]
	}
	return text
}
