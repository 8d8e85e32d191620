package intent

import (
	"context"
	"math"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/types"
)

const semanticSimilarityThreshold = 0.85

// semanticLayer is layer 1 of the cascade: cosine similarity against a
// bank of embedded exemplar phrases, one bank per non-question intent.
// Initialization is lazy and failure-tolerant — if the embedder is
// unavailable when warmed, the layer disables itself rather than
// blocking startup.
type semanticLayer struct {
	embedder capability.Embedder
	enabled  bool
	vectors  map[types.Intent][][]float32
}

func newSemanticLayer(embedder capability.Embedder) *semanticLayer {
	return &semanticLayer{embedder: embedder}
}

// Warm embeds every exemplar phrase once. Call it during component
// initialization; a failure here disables the layer rather than
// propagating, per the classifier's failure model.
func (s *semanticLayer) Warm(ctx context.Context) {
	vectors := make(map[types.Intent][][]float32, len(exemplarBank))
	for intent, phrases := range exemplarBank {
		embedded, err := s.embedder.EmbedDocuments(ctx, phrases)
		if err != nil {
			logger.Warnf(ctx, "intent classifier: semantic layer disabled, failed to embed exemplars: %v", err)
			s.enabled = false
			return
		}
		vectors[intent] = embedded
	}
	s.vectors = vectors
	s.enabled = true
}

func (s *semanticLayer) classify(ctx context.Context, query string) (types.Classification, bool) {
	if !s.enabled {
		return types.Classification{}, false
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		logger.Warnf(ctx, "intent classifier: semantic layer embed failed, passing through: %v", err)
		return types.Classification{}, false
	}

	var bestIntent types.Intent
	bestScore := -1.0
	for intent, phraseVecs := range s.vectors {
		for _, v := range phraseVecs {
			sim := cosineSimilarity(queryVec, v)
			if sim > bestScore {
				bestScore = sim
				bestIntent = intent
			}
		}
	}

	if bestScore >= semanticSimilarityThreshold {
		return types.Classification{Intent: bestIntent, Confidence: bestScore}, true
	}
	return types.Classification{}, false
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
