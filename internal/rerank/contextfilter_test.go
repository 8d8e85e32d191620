package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/wekai-labs/ragqa/internal/types"
)

type fakeEmbedder struct {
	queryVec []float32
	docVecs  map[string][]float32
	err      error
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.queryVec, nil
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		vecs[i] = f.docVecs[t]
	}
	return vecs, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }

func TestContextFilterKeepsDocumentsAboveThreshold(t *testing.T) {
	docs := []types.RetrievedDocument{
		{Content: "close match"},
		{Content: "unrelated content"},
	}
	embedder := &fakeEmbedder{
		queryVec: []float32{1, 0},
		docVecs: map[string][]float32{
			"close match":       {1, 0},
			"unrelated content": {0, 1},
		},
	}
	kept := NewContextFilter(embedder).Filter(context.Background(), "query", docs)
	if len(kept) != 1 || kept[0].Content != "close match" {
		t.Errorf("kept = %+v, want only the close match", kept)
	}
}

func TestContextFilterFallsBackToKeywordOverlapOnEmbedderError(t *testing.T) {
	docs := []types.RetrievedDocument{
		{Content: "the capital of france is paris"},
		{Content: "completely different topic"},
	}
	embedder := &fakeEmbedder{err: errors.New("embedder down")}
	kept := NewContextFilter(embedder).Filter(context.Background(), "capital france", docs)
	if len(kept) != 1 || kept[0].Content != "the capital of france is paris" {
		t.Errorf("kept = %+v, want keyword fallback to keep only the matching doc", kept)
	}
}

func TestContextFilterKeywordFallbackKeepsAllWhenQueryHasNoContentWords(t *testing.T) {
	docs := []types.RetrievedDocument{{Content: "anything"}}
	embedder := &fakeEmbedder{err: errors.New("embedder down")}
	kept := NewContextFilter(embedder).Filter(context.Background(), "", docs)
	if len(kept) != 1 {
		t.Errorf("kept = %+v, want all docs kept when query has no content words", kept)
	}
}

func TestCosineSimMismatchedLengthIsZero(t *testing.T) {
	if got := cosineSim([]float32{1, 0}, []float32{1, 0, 0}); got != 0 {
		t.Errorf("cosineSim = %v, want 0 for mismatched lengths", got)
	}
}

func TestCosineSimZeroVectorIsZero(t *testing.T) {
	if got := cosineSim([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("cosineSim = %v, want 0 for a zero vector", got)
	}
}

func TestPreviewTruncatesLongContent(t *testing.T) {
	long := make([]byte, previewChars+100)
	for i := range long {
		long[i] = 'a'
	}
	got := preview(string(long))
	if len(got) != previewChars {
		t.Errorf("preview length = %d, want %d", len(got), previewChars)
	}
}

func TestPreviewLeavesShortContentUnchanged(t *testing.T) {
	if got := preview("short"); got != "short" {
		t.Errorf("preview(%q) = %q, want unchanged", "short", got)
	}
}
