package lexical

import "math"

// bm25 constants, Okapi BM25 defaults — not part of the configuration
// surface since the spec names no tunable here beyond rebuild
// semantics.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// bm25Doc is one tokenized document in a scorer's corpus.
type bm25Doc struct {
	terms  []string
	length int
}

// bm25Scorer is an Okapi BM25 index over a fixed corpus, built once and
// queried many times. It is immutable after construction — the
// rebuild-not-incremental model in §4.3 (document-frequency statistics
// depend on the whole corpus) means any write replaces the scorer
// wholesale rather than mutating one in place.
type bm25Scorer struct {
	docs       []bm25Doc
	avgDocLen  float64
	docFreq    map[string]int
	numDocs    int
}

func newBM25Scorer(tokenizedDocs [][]string) *bm25Scorer {
	s := &bm25Scorer{
		docs:    make([]bm25Doc, len(tokenizedDocs)),
		docFreq: make(map[string]int),
		numDocs: len(tokenizedDocs),
	}

	var totalLen int
	for i, terms := range tokenizedDocs {
		s.docs[i] = bm25Doc{terms: terms, length: len(terms)}
		totalLen += len(terms)

		seen := make(map[string]struct{}, len(terms))
		for _, term := range terms {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			s.docFreq[term]++
		}
	}
	if s.numDocs > 0 {
		s.avgDocLen = float64(totalLen) / float64(s.numDocs)
	}
	return s
}

// idf is the standard BM25 inverse document frequency with a +1 floor
// so a term present in every document still contributes a small
// positive weight instead of going negative.
func (s *bm25Scorer) idf(term string) float64 {
	df := s.docFreq[term]
	return math.Log(1 + (float64(s.numDocs)-float64(df)+0.5)/(float64(df)+0.5))
}

// score returns the BM25 score of query terms against document i.
func (s *bm25Scorer) score(docIndex int, queryTerms []string) float64 {
	doc := s.docs[docIndex]
	termFreq := make(map[string]int, len(doc.terms))
	for _, t := range doc.terms {
		termFreq[t]++
	}

	var score float64
	for _, term := range queryTerms {
		tf := float64(termFreq[term])
		if tf == 0 {
			continue
		}
		idf := s.idf(term)
		denom := tf + bm25K1*(1-bm25B+bm25B*float64(doc.length)/s.avgDocLen)
		score += idf * (tf * (bm25K1 + 1)) / denom
	}
	return score
}

// SearchAll scores every document in the corpus against queryTerms and
// returns (index, score) pairs for documents with a positive score.
func (s *bm25Scorer) SearchAll(queryTerms []string) []indexedScore {
	results := make([]indexedScore, 0, len(s.docs))
	for i := range s.docs {
		sc := s.score(i, queryTerms)
		if sc > 0 {
			results = append(results, indexedScore{index: i, score: sc})
		}
	}
	return results
}

type indexedScore struct {
	index int
	score float64
}
