package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agrisage/internal/model"
)

// RetrievalCache handles Redis operations for retrieval results. The policy
// corpus is static, so query results are safe to cache.
type RetrievalCache interface {
	GetHits(ctx context.Context, query string, topK int) ([]model.RetrievalHit, bool)
	SetHits(ctx context.Context, query string, topK int, hits []model.RetrievalHit)
}

type retrievalCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRetrievalCache creates a new retrieval cache
func NewRetrievalCache(client *redis.Client) RetrievalCache {
	return &retrievalCache{
		client: client,
		ttl:    1 * time.Hour,
	}
}

func (c *retrievalCache) queryKey(query string, topK int) string {
	return fmt.Sprintf("rag:q:%x:%d", md5.Sum([]byte(query)), topK)
}

func (c *retrievalCache) GetHits(ctx context.Context, query string, topK int) ([]model.RetrievalHit, bool) {
	data, err := c.client.Get(ctx, c.queryKey(query, topK)).Result()
	if err != nil {
		return nil, false
	}
	var hits []model.RetrievalHit
	if err := json.Unmarshal([]byte(data), &hits); err != nil {
		return nil, false
	}
	return hits, true
}

func (c *retrievalCache) SetHits(ctx context.Context, query string, topK int, hits []model.RetrievalHit) {
	data, err := json.Marshal(hits)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.queryKey(query, topK), data, c.ttl)
}
