// Package lexical implements the per-collection keyword index (§4.3):
// an in-process BM25-family scorer built and rebuilt wholesale, with an
// alternate Elasticsearch-backed implementation (esindex) for
// multi-process deployments, and a background rebuild queue
// (rebuildqueue) so ingestion-time writers never block readers.
package lexical

import (
	"sort"
	"sync"

	"github.com/wekai-labs/ragqa/internal/types"
)

// Result is one scored hit from a lexical search.
type Result struct {
	Chunk types.Chunk
	Score float64
}

// collectionState is one collection's current scorer plus the chunks
// it was built from, replaced atomically on every write.
type collectionState struct {
	scorer *bm25Scorer
	chunks []types.Chunk
}

// Index is a process-wide registry of per-collection BM25 scorers.
// Readers see either the previous generation or the new one, never a
// partial rebuild: each write builds a fresh collectionState and swaps
// the map entry under the lock in one step. Writers to the same
// collection are serialized by that collection's mutex in writeLock
// (obtained through lockFor; writeMu only guards the map) so two
// concurrent add() calls can't race to build from a stale chunk list.
type Index struct {
	tokenizer *Tokenizer

	mu    sync.RWMutex
	state map[string]*collectionState

	writeMu   sync.Mutex
	writeLock map[string]*sync.Mutex
}

// Tokenizer returns the index's tokenizer, so a caller adapting Search
// to a different interface (retrieval.MemoryLexicalSearcher) can log
// the terms a query expanded into without re-implementing tokenization.
func (idx *Index) Tokenizer() *Tokenizer {
	return idx.tokenizer
}

func NewIndex(tokenizer *Tokenizer) *Index {
	return &Index{
		tokenizer: tokenizer,
		state:     make(map[string]*collectionState),
		writeLock: make(map[string]*sync.Mutex),
	}
}

func (idx *Index) lockFor(collection string) *sync.Mutex {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()
	l, ok := idx.writeLock[collection]
	if !ok {
		l = &sync.Mutex{}
		idx.writeLock[collection] = l
	}
	return l
}

// Build tokenizes chunks and replaces collection's index wholesale.
func (idx *Index) Build(collection string, chunks []types.Chunk) {
	l := idx.lockFor(collection)
	l.Lock()
	defer l.Unlock()
	idx.publish(collection, chunks)
}

// Add appends new_chunks to the existing corpus and rebuilds, since
// BM25's document-frequency statistics depend on the full corpus.
func (idx *Index) Add(collection string, newChunks []types.Chunk) {
	l := idx.lockFor(collection)
	l.Lock()
	defer l.Unlock()

	idx.mu.RLock()
	existing := idx.state[collection]
	idx.mu.RUnlock()

	var all []types.Chunk
	if existing != nil {
		all = append(all, existing.chunks...)
	}
	all = append(all, newChunks...)
	idx.publish(collection, all)
}

// Remove drops every chunk whose DocumentID is in docIDs and rebuilds.
func (idx *Index) Remove(collection string, docIDs map[string]struct{}) {
	l := idx.lockFor(collection)
	l.Lock()
	defer l.Unlock()

	idx.mu.RLock()
	existing := idx.state[collection]
	idx.mu.RUnlock()
	if existing == nil {
		return
	}

	kept := make([]types.Chunk, 0, len(existing.chunks))
	for _, c := range existing.chunks {
		if _, dropped := docIDs[c.DocumentID]; !dropped {
			kept = append(kept, c)
		}
	}
	idx.publish(collection, kept)
}

// Clear drops collection's index entirely.
func (idx *Index) Clear(collection string) {
	l := idx.lockFor(collection)
	l.Lock()
	defer l.Unlock()

	idx.mu.Lock()
	delete(idx.state, collection)
	idx.mu.Unlock()
}

// publish builds a fresh scorer and swaps it in atomically.
func (idx *Index) publish(collection string, chunks []types.Chunk) {
	tokenized := make([][]string, len(chunks))
	for i, c := range chunks {
		tokenized[i] = idx.tokenizer.Tokenize(c.Content)
	}
	next := &collectionState{scorer: newBM25Scorer(tokenized), chunks: chunks}

	idx.mu.Lock()
	idx.state[collection] = next
	idx.mu.Unlock()
}

// Search tokenizes query identically to build/add and returns the
// top-k chunks by BM25 score, descending. A missing or empty
// collection returns an empty list, never an error.
func (idx *Index) Search(collection, query string, k int) []Result {
	idx.mu.RLock()
	st := idx.state[collection]
	idx.mu.RUnlock()
	if st == nil || len(st.chunks) == 0 {
		return nil
	}

	terms := idx.tokenizer.Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	scored := st.scorer.SearchAll(terms)
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	if k > len(scored) {
		k = len(scored)
	}
	results := make([]Result, k)
	for i := 0; i < k; i++ {
		results[i] = Result{Chunk: st.chunks[scored[i].index], Score: scored[i].score}
	}
	return results
}
