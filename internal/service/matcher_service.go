package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/conceptbridge/transcription-api/internal/model"
)

// Embedder produces one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Model() string
	IsConfigured() bool
}

// MatcherService embeds concept description pairs and scores them with
// cosine similarity.
type MatcherService struct {
	embedder Embedder
}

func NewMatcherService(embedder Embedder) *MatcherService {
	return &MatcherService{embedder: embedder}
}

// ModelInfo returns the embedding model name in use.
func (s *MatcherService) ModelInfo() string {
	if s.embedder == nil {
		return "mock"
	}
	return s.embedder.Model()
}

// Similarity scores each pair by embedding both descriptions and taking the
// cosine of the two vectors.
func (s *MatcherService) Similarity(ctx context.Context, pairs []model.ConceptPair) ([]model.SimilarityResult, error) {
	results := make([]model.SimilarityResult, 0, len(pairs))

	for _, pair := range pairs {
		vectors, err := s.embed(ctx, []string{pair.ConceptA.Description, pair.ConceptB.Description})
		if err != nil {
			return nil, fmt.Errorf("embedding pair %s/%s: %w", pair.ConceptA.ID, pair.ConceptB.ID, err)
		}

		results = append(results, model.SimilarityResult{
			ConceptAID: pair.ConceptA.ID,
			ConceptBID: pair.ConceptB.ID,
			Similarity: Cosine(vectors[0], vectors[1]),
		})
	}

	return results, nil
}

func (s *MatcherService) embed(ctx context.Context, texts []string) ([][]float64, error) {
	if s.embedder != nil && s.embedder.IsConfigured() {
		return s.embedder.Embed(ctx, texts)
	}

	// Mock fallback: stable letter-frequency vectors keep the endpoint
	// usable without a configured embedding backend.
	vectors := make([][]float64, len(texts))
	for i, t := range texts {
		vectors[i] = mockEmbedding(t)
	}
	return vectors, nil
}

// Cosine computes dot(a,b) / (|a| * |b|), accumulating in float64. Returns 0
// for mismatched lengths or zero vectors.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func mockEmbedding(text string) []float64 {
	vec := make([]float64, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec
}
