package retrieval

import (
	"testing"

	"github.com/wekai-labs/ragqa/internal/capability"
)

func TestFuseRankOnlyScaling(t *testing.T) {
	dense := []capability.ScoredChunk{{ChunkID: "a", Distance: 0.1}, {ChunkID: "b", Distance: 0.2}}
	lexical := []capability.ScoredChunk{{ChunkID: "b", Distance: 10}, {ChunkID: "a", Distance: 20}}

	base := fuse(dense, lexical, 60)
	sortByFusedScore(base, 60)

	scaledDense := []capability.ScoredChunk{{ChunkID: "a", Distance: 0.1 * 1000}, {ChunkID: "b", Distance: 0.2 * 1000}}
	scaledLexical := []capability.ScoredChunk{{ChunkID: "b", Distance: 10 * 1000}, {ChunkID: "a", Distance: 20 * 1000}}
	scaled := fuse(scaledDense, scaledLexical, 60)
	sortByFusedScore(scaled, 60)

	if len(base) != len(scaled) {
		t.Fatalf("length mismatch: %d vs %d", len(base), len(scaled))
	}
	for i := range base {
		if base[i].chunk.ChunkID != scaled[i].chunk.ChunkID {
			t.Errorf("order diverged at %d: %s vs %s", i, base[i].chunk.ChunkID, scaled[i].chunk.ChunkID)
		}
	}
}

func TestFuseAsymmetricFusionPrefersDualHit(t *testing.T) {
	// Dense ranks A first (rank 1), B second (rank 2); lexical only
	// returns A (rank 1). A appears in both lists, so it must outrank
	// B regardless of rrf_k.
	dense := []capability.ScoredChunk{{ChunkID: "A"}, {ChunkID: "B"}}
	lexical := []capability.ScoredChunk{{ChunkID: "A"}}

	cands := fuse(dense, lexical, 60)
	sortByFusedScore(cands, 60)

	if cands[0].chunk.ChunkID != "A" {
		t.Fatalf("expected A to outrank B, got order: %v", chunkIDs(cands))
	}
}

func TestRRFScoreSumsAcrossLanes(t *testing.T) {
	c := candidate{denseRank: 1, lexicalRank: 1}
	got := rrfScore(c, 60)
	want := 1.0/61.0 + 1.0/61.0
	if got != want {
		t.Errorf("rrfScore = %v, want %v", got, want)
	}
}

func chunkIDs(cands []candidate) []string {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.chunk.ChunkID
	}
	return ids
}
