package lexical

import (
	"testing"

	"github.com/wekai-labs/ragqa/internal/types"
)

func newTestIndex() *Index {
	return NewIndex(NewTokenizer())
}

func chunk(docID, chunkID, content string) types.Chunk {
	return types.Chunk{ChunkID: chunkID, DocumentID: docID, Collection: "c1", Content: content}
}

// TestAddThenRemoveRestoresPriorSearchResults exercises the lexical
// index's add/remove rebuild invariant: adding a document and then
// removing it by its document ID restores search results to what they
// were before the add.
func TestAddThenRemoveRestoresPriorSearchResults(t *testing.T) {
	idx := newTestIndex()
	idx.Build("c1", []types.Chunk{
		chunk("doc1", "doc1-0", "the capital of france is paris"),
		chunk("doc2", "doc2-0", "golang concurrency patterns with channels"),
	})

	before := idx.Search("c1", "paris france", 10)
	if len(before) == 0 {
		t.Fatal("expected a hit for doc1 before add")
	}

	idx.Add("c1", []types.Chunk{chunk("doc3", "doc3-0", "an unrelated chunk about rust ownership")})
	idx.Remove("c1", map[string]struct{}{"doc3": {}})

	after := idx.Search("c1", "paris france", 10)
	if len(after) != len(before) {
		t.Fatalf("Search after add+remove returned %d hits, want %d", len(after), len(before))
	}
	for i := range before {
		if before[i].Chunk.ChunkID != after[i].Chunk.ChunkID {
			t.Errorf("hit %d = %q, want %q", i, after[i].Chunk.ChunkID, before[i].Chunk.ChunkID)
		}
	}
}

func TestSearchOnMissingCollectionReturnsEmpty(t *testing.T) {
	idx := newTestIndex()
	if got := idx.Search("nope", "anything", 5); got != nil {
		t.Errorf("Search on missing collection = %v, want nil", got)
	}
}

func TestRemoveFromMissingCollectionIsNoop(t *testing.T) {
	idx := newTestIndex()
	idx.Remove("c1", map[string]struct{}{"doc1": {}})
	if got := idx.Search("c1", "anything", 5); got != nil {
		t.Errorf("Search after removing from a never-built collection = %v, want nil", got)
	}
}

func TestClearDropsCollection(t *testing.T) {
	idx := newTestIndex()
	idx.Build("c1", []types.Chunk{chunk("doc1", "doc1-0", "golang concurrency patterns")})
	if len(idx.Search("c1", "golang", 5)) == 0 {
		t.Fatal("expected a hit before Clear")
	}
	idx.Clear("c1")
	if got := idx.Search("c1", "golang", 5); got != nil {
		t.Errorf("Search after Clear = %v, want nil", got)
	}
}

func TestSearchRespectsK(t *testing.T) {
	idx := newTestIndex()
	idx.Build("c1", []types.Chunk{
		chunk("doc1", "doc1-0", "golang channels and goroutines"),
		chunk("doc2", "doc2-0", "golang interfaces and goroutines"),
		chunk("doc3", "doc3-0", "golang generics and goroutines"),
	})
	got := idx.Search("c1", "golang goroutines", 2)
	if len(got) != 2 {
		t.Errorf("Search with k=2 returned %d results, want 2", len(got))
	}
}
