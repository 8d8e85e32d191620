package retrieval

import (
	"testing"

	"github.com/wekai-labs/ragqa/internal/capability"
)

func TestExpandToParentsDedupesByParentID(t *testing.T) {
	fused := []candidate{
		{chunk: capability.ScoredChunk{ChunkID: "c1", ParentID: "p1", ParentContext: "parent one full text"}, denseRank: 1},
		{chunk: capability.ScoredChunk{ChunkID: "c2", ParentID: "p1", ParentContext: "parent one full text"}, denseRank: 2},
		{chunk: capability.ScoredChunk{ChunkID: "c3", ParentID: "p2", ParentContext: "parent two full text"}, denseRank: 3},
	}
	docs := expandToParents(fused, 60)
	if len(docs) != 2 {
		t.Fatalf("expandToParents returned %d docs, want 2 (one per distinct parent)", len(docs))
	}
	if docs[0].Metadata.ParentID != "p1" || docs[1].Metadata.ParentID != "p2" {
		t.Errorf("expected first-seen parent order p1,p2; got %s,%s", docs[0].Metadata.ParentID, docs[1].Metadata.ParentID)
	}
	if !docs[0].Metadata.IsExpanded {
		t.Error("a chunk with a parent_id should be marked IsExpanded")
	}
	if docs[0].Content != "parent one full text" {
		t.Errorf("Content = %q, want the parent context", docs[0].Content)
	}
}

func TestExpandToParentsPassesThroughChunksWithoutParent(t *testing.T) {
	fused := []candidate{
		{chunk: capability.ScoredChunk{ChunkID: "c1", Content: "standalone chunk"}, denseRank: 1},
		{chunk: capability.ScoredChunk{ChunkID: "c2", Content: "another standalone chunk"}, denseRank: 2},
	}
	docs := expandToParents(fused, 60)
	if len(docs) != 2 {
		t.Fatalf("expandToParents returned %d docs, want 2 (no dedup without a parent_id)", len(docs))
	}
	for _, d := range docs {
		if d.Metadata.IsExpanded {
			t.Error("a chunk with no parent_id should never be marked IsExpanded")
		}
	}
}

func TestExpandToParentsKeepsFirstSeenRankOrder(t *testing.T) {
	fused := []candidate{
		{chunk: capability.ScoredChunk{ChunkID: "c1", ParentID: "p1", ParentContext: "p1 text"}, denseRank: 1},
		{chunk: capability.ScoredChunk{ChunkID: "c2", Content: "standalone"}, denseRank: 2},
		{chunk: capability.ScoredChunk{ChunkID: "c3", ParentID: "p1", ParentContext: "p1 text"}, denseRank: 3},
	}
	docs := expandToParents(fused, 60)
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].Metadata.ParentID != "p1" || docs[1].Metadata.ChunkID != "c2" {
		t.Errorf("expected [p1-expansion, c2-standalone] in rank order, got %+v", docs)
	}
}
