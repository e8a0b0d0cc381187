package model

// PolicyChunk is one indexed chunk of the policy corpus.
type PolicyChunk struct {
	ID       string `json:"id" bson:"_id"`
	SchemeID string `json:"scheme_id" bson:"schemeId"`
	Title    string `json:"title" bson:"title"`
	Source   string `json:"source" bson:"source"`
	Content  string `json:"content" bson:"content"`
}

// RetrievalHit is one scored corpus chunk returned by the retriever.
type RetrievalHit struct {
	SchemeID string  `json:"scheme_id"`
	Title    string  `json:"title"`
	Source   string  `json:"source"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}
