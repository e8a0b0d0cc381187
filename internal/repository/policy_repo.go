package repository

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agrisage/internal/model"
)

// PolicyRepo handles MongoDB operations for the policy-chunk vector store
type PolicyRepo interface {
	EnsureCorpus(ctx context.Context, chunks []model.PolicyChunk, vectors map[string][]float64) error
	QueryNearest(ctx context.Context, embedding []float64, topK int) ([]model.RetrievalHit, error)
}

type policyRepo struct {
	collection *mongo.Collection
}

// NewPolicyRepo creates a new policy repository
func NewPolicyRepo(db *mongo.Database) PolicyRepo {
	return &policyRepo{
		collection: db.Collection("policy_chunks"),
	}
}

type policyDocument struct {
	ID        string    `bson:"_id"`
	SchemeID  string    `bson:"schemeId"`
	Title     string    `bson:"title"`
	Source    string    `bson:"source"`
	Content   string    `bson:"content"`
	Embedding []float64 `bson:"embedding"`
}

// EnsureCorpus upserts the embedded corpus so the collection always matches
// the shipped documents.
func (r *policyRepo) EnsureCorpus(ctx context.Context, chunks []model.PolicyChunk, vectors map[string][]float64) error {
	opts := options.Replace().SetUpsert(true)
	for _, chunk := range chunks {
		doc := policyDocument{
			ID:        chunk.ID,
			SchemeID:  chunk.SchemeID,
			Title:     chunk.Title,
			Source:    chunk.Source,
			Content:   chunk.Content,
			Embedding: vectors[chunk.ID],
		}
		if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": chunk.ID}, doc, opts); err != nil {
			return err
		}
	}
	return nil
}

// QueryNearest scores every stored chunk by cosine similarity against the
// query embedding. The corpus is small, so scoring happens in process.
func (r *policyRepo) QueryNearest(ctx context.Context, embedding []float64, topK int) ([]model.RetrievalHit, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []policyDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	hits := make([]model.RetrievalHit, 0, len(docs))
	for _, doc := range docs {
		hits = append(hits, model.RetrievalHit{
			SchemeID: doc.SchemeID,
			Title:    doc.Title,
			Source:   doc.Source,
			Snippet:  snippet(doc.Content),
			Score:    cosine(embedding, doc.Embedding),
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
	return hits, nil
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func snippet(content string) string {
	const maxLen = 240
	if len(content) > maxLen {
		return content[:maxLen]
	}
	return content
}
