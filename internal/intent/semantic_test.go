package intent

import (
	"context"
	"math"
	"testing"

	"github.com/wekai-labs/ragqa/internal/types"
)

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	a := []float32{1, 2, 3}
	if got := cosineSimilarity(a, a); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("cosineSimilarity(a, a) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityOrthogonalVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := cosineSimilarity(a, b); math.Abs(got) > 1e-9 {
		t.Errorf("cosineSimilarity(orthogonal) = %v, want 0", got)
	}
}

func TestCosineSimilarityMismatchedLengthIsZero(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 2}, []float32{1}); got != 0 {
		t.Errorf("cosineSimilarity(mismatched length) = %v, want 0", got)
	}
}

func TestCosineSimilarityZeroVectorIsZero(t *testing.T) {
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("cosineSimilarity(zero vector) = %v, want 0", got)
	}
}

type fakeEmbedder struct {
	docVecs map[string][]float32
	query   []float32
	err     error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = f.docVecs[text]
	}
	return out, nil
}
func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.query, nil
}
func (f *fakeEmbedder) Dimensions() int { return 2 }

func TestSemanticLayerDisabledWhenWarmFails(t *testing.T) {
	s := newSemanticLayer(&fakeEmbedder{err: context.DeadlineExceeded})
	s.Warm(context.Background())
	if s.enabled {
		t.Error("expected the semantic layer to disable itself when Warm fails to embed exemplars")
	}
	if _, ok := s.classify(context.Background(), "anything"); ok {
		t.Error("a disabled semantic layer should never resolve a classification")
	}
}

func TestSemanticLayerClassifiesAboveThreshold(t *testing.T) {
	s := &semanticLayer{
		embedder: &fakeEmbedder{query: []float32{1, 0}},
		enabled:  true,
		vectors: map[types.Intent][][]float32{
			types.IntentGreeting:  {{1, 0}},
			types.IntentGratitude: {{0, 1}},
		},
	}
	got, ok := s.classify(context.Background(), "hello there")
	if !ok {
		t.Fatal("expected a confident match against the greeting exemplar")
	}
	if got.Intent != types.IntentGreeting {
		t.Errorf("Intent = %v, want greeting", got.Intent)
	}
}

func TestSemanticLayerBelowThresholdPassesThrough(t *testing.T) {
	s := &semanticLayer{
		embedder: &fakeEmbedder{query: []float32{1, 1}},
		enabled:  true,
		vectors: map[types.Intent][][]float32{
			types.IntentGreeting: {{1, 0}},
		},
	}
	if _, ok := s.classify(context.Background(), "ambiguous query"); ok {
		t.Error("a weak match below the similarity threshold should not resolve a classification")
	}
}
