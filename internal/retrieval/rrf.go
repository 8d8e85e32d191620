package retrieval

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/wekai-labs/ragqa/internal/capability"
)

// candidate is one scored document from either search lane, carried
// through fusion before parent expansion turns it into a
// types.RetrievedDocument.
type candidate struct {
	chunk       capability.ScoredChunk
	denseRank   int // 0 = not present
	lexicalRank int // 0 = not present
	denseScore  float64
	lexicalScore float64
}

func identity(c capability.ScoredChunk) string {
	if c.ChunkID != "" {
		return c.ChunkID
	}
	content := c.Content
	if len(content) > 200 {
		content = content[:200]
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// fuse combines dense and lexical rankings by reciprocal rank fusion:
// each list contributes 1/(rrfK+rank) to a candidate's score, summed
// across lists it appears in. rank is 1-indexed per §4.6.
func fuse(dense, lexical []capability.ScoredChunk, rrfK int) []candidate {
	byID := make(map[string]*candidate)
	order := make([]string, 0, len(dense)+len(lexical))

	for i, c := range dense {
		id := identity(c)
		cand, ok := byID[id]
		if !ok {
			cand = &candidate{chunk: c}
			byID[id] = cand
			order = append(order, id)
		}
		cand.denseRank = i + 1
		cand.denseScore = c.Distance
	}
	for i, c := range lexical {
		id := identity(c)
		cand, ok := byID[id]
		if !ok {
			cand = &candidate{chunk: c}
			byID[id] = cand
			order = append(order, id)
		}
		cand.lexicalRank = i + 1
		cand.lexicalScore = c.Distance
	}

	results := make([]candidate, 0, len(order))
	for _, id := range order {
		results = append(results, *byID[id])
	}
	return results
}

func rrfScore(c candidate, rrfK int) float64 {
	var score float64
	if c.denseRank > 0 {
		score += 1.0 / float64(rrfK+c.denseRank)
	}
	if c.lexicalRank > 0 {
		score += 1.0 / float64(rrfK+c.lexicalRank)
	}
	return score
}

// sortByFusedScore sorts candidates by RRF score descending, stable so
// ties preserve dense-then-lexical discovery order.
func sortByFusedScore(cands []candidate, rrfK int) {
	sort.SliceStable(cands, func(i, j int) bool {
		return rrfScore(cands[i], rrfK) > rrfScore(cands[j], rrfK)
	})
}
