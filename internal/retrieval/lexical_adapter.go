package retrieval

import (
	"context"

	"github.com/wekai-labs/ragqa/internal/lexical"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/support"
)

// LexicalSearcher abstracts over the in-process BM25 scorer and the
// Elasticsearch-backed alternative so the hybrid retriever doesn't
// need to know which backend is configured.
type LexicalSearcher interface {
	Search(ctx context.Context, collection, query string, k int) ([]lexical.Result, error)
}

// MemoryLexicalSearcher adapts the in-process *lexical.Index, whose
// Search has no ctx or error since it never leaves the process, to the
// LexicalSearcher interface.
type MemoryLexicalSearcher struct {
	Index *lexical.Index
}

func (m *MemoryLexicalSearcher) Search(ctx context.Context, collection, query string, k int) ([]lexical.Result, error) {
	terms := m.Index.Tokenizer().Tokenize(query)
	logger.Debugf(ctx, "lexical search collection=%s terms=%s", collection, support.StringSliceJoin(terms))
	return m.Index.Search(collection, query, k), nil
}
