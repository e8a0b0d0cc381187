package service

import (
	"crypto/md5"
	"encoding/binary"
	"math"
	"regexp"
)

// embeddingDim is the dimensionality of the hashed-token embeddings. The
// embedding is deterministic and provider-free: each token increments one
// hash-selected bucket, and the vector is L2-normalized.
const embeddingDim = 192

// tokenPattern matches latin alphanumerics plus Devanagari and Telugu script
// runs, so Hindi and Telugu queries embed alongside English.
var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9\x{0900}-\x{097F}\x{0C00}-\x{0C7F}]+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(lowercase(text), -1)
}

func lowercase(text string) string {
	b := []rune(text)
	for i, r := range b {
		if r >= 'A' && r <= 'Z' {
			b[i] = r + ('a' - 'A')
		}
	}
	return string(b)
}

func embedText(text string) []float64 {
	vec := make([]float64, embeddingDim)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	for _, token := range tokens {
		digest := md5.Sum([]byte(token))
		idx := binary.BigEndian.Uint64(digest[8:]) % embeddingDim
		vec[idx]++
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func cosineSimilarity(a, b []float64) float64 {
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
