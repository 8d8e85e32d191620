// Package esindex is an Elasticsearch-backed alternative to the
// in-process BM25 scorer in the parent lexical package, for
// deployments that run more than one engine process against a shared
// keyword index. It is grounded on the teacher's
// application/repository/retriever/elasticsearch/v8 repository, pared
// down to the one document shape and two query shapes (keyword match,
// filter-by-collection delete) this engine needs.
package esindex

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/core/search"
	estypes "github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/wekai-labs/ragqa/internal/lexical"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/types"
)

// doc is the Elasticsearch source document for one chunk. Field names
// are deliberately flat and snake_case to match the mapping below.
type doc struct {
	ChunkID       string `json:"chunk_id"`
	DocumentID    string `json:"document_id"`
	Collection    string `json:"collection"`
	Source        string `json:"source"`
	Page          int    `json:"page"`
	Content       string `json:"content"`
	ParentID      string `json:"parent_id"`
	ParentContext string `json:"parent_context"`
	ChildIndex    int    `json:"child_index"`
	ParentIndex   int    `json:"parent_index"`
}

func toDoc(c types.Chunk) doc {
	return doc{
		ChunkID:       c.ChunkID,
		DocumentID:    c.DocumentID,
		Collection:    c.Collection,
		Source:        c.Source,
		Page:          c.Page,
		Content:       c.Content,
		ParentID:      c.ParentID,
		ParentContext: c.ParentContext,
		ChildIndex:    c.ChildIndex,
		ParentIndex:   c.ParentIndex,
	}
}

func (d doc) toChunk() types.Chunk {
	return types.Chunk{
		ChunkID:       d.ChunkID,
		DocumentID:    d.DocumentID,
		Collection:    d.Collection,
		Source:        d.Source,
		Page:          d.Page,
		Content:       d.Content,
		ParentID:      d.ParentID,
		ParentContext: d.ParentContext,
		ChildIndex:    d.ChildIndex,
		ParentIndex:   d.ParentIndex,
	}
}

// Index is the Elasticsearch-backed LexicalIndex implementation. Unlike
// the in-process scorer it has no in-memory state of its own — every
// call is a round trip — so its "atomic publish" guarantee is whatever
// Elasticsearch's own refresh semantics provide, not a Go-level lock.
type Index struct {
	client    *elasticsearch.TypedClient
	indexName string
}

func NewIndex(client *elasticsearch.TypedClient, indexName string) (*Index, error) {
	idx := &Index{client: client, indexName: indexName}
	if err := idx.ensureIndex(context.Background()); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) ensureIndex(ctx context.Context) error {
	exists, err := idx.client.Indices.Exists(idx.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return nil
	}
	_, err = idx.client.Indices.Create(idx.indexName).Do(ctx)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Build replaces collection's documents wholesale: delete-by-query
// then bulk-index, mirroring the in-process scorer's rebuild-not-
// incremental contract so callers can swap backends transparently.
func (idx *Index) Build(ctx context.Context, collection string, chunks []types.Chunk) error {
	if err := idx.deleteByCollection(ctx, collection); err != nil {
		return err
	}
	return idx.Add(ctx, collection, chunks)
}

// Add bulk-indexes newChunks without touching existing documents.
func (idx *Index) Add(ctx context.Context, collection string, newChunks []types.Chunk) error {
	if len(newChunks) == 0 {
		return nil
	}
	req := idx.client.Bulk().Index(idx.indexName)
	for _, c := range newChunks {
		d := toDoc(c)
		id := d.ChunkID
		if err := req.CreateOp(estypes.CreateOperation{Id_: &id}, d); err != nil {
			return fmt.Errorf("build bulk op for chunk %s: %w", c.ChunkID, err)
		}
	}
	resp, err := req.Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	if resp.Errors {
		logger.Errorf(ctx, "elasticsearch bulk index reported item errors for collection %s", collection)
	}
	return nil
}

// Remove deletes every document whose document_id is in docIDs.
func (idx *Index) Remove(ctx context.Context, collection string, docIDs map[string]struct{}) error {
	if len(docIDs) == 0 {
		return nil
	}
	ids := make([]estypes.FieldValue, 0, len(docIDs))
	for id := range docIDs {
		ids = append(ids, id)
	}
	_, err := idx.client.DeleteByQuery(idx.indexName).Query(&estypes.Query{
		Bool: &estypes.BoolQuery{
			Filter: []estypes.Query{
				{Term: map[string]estypes.TermQuery{"collection.keyword": {Value: collection}}},
				{Terms: &estypes.TermsQuery{TermsQuery: map[string]estypes.TermsQueryField{"document_id.keyword": ids}}},
			},
		},
	}).Do(ctx)
	if err != nil {
		return fmt.Errorf("delete by document id: %w", err)
	}
	return nil
}

// Clear drops every document for collection.
func (idx *Index) Clear(ctx context.Context, collection string) error {
	return idx.deleteByCollection(ctx, collection)
}

func (idx *Index) deleteByCollection(ctx context.Context, collection string) error {
	_, err := idx.client.DeleteByQuery(idx.indexName).Query(&estypes.Query{
		Term: map[string]estypes.TermQuery{"collection.keyword": {Value: collection}},
	}).Do(ctx)
	if err != nil {
		return fmt.Errorf("delete by collection: %w", err)
	}
	return nil
}

// Search runs a BM25 match query against content, scoped to
// collection, and returns the top-k hits as lexical.Result so callers
// depending on the lexical.LexicalIndex-shaped return value don't need
// to branch on backend.
func (idx *Index) Search(ctx context.Context, collection, query string, k int) ([]lexical.Result, error) {
	resp, err := idx.client.Search().Index(idx.indexName).Request(&search.Request{
		Query: &estypes.Query{
			Bool: &estypes.BoolQuery{
				Filter: []estypes.Query{{Term: map[string]estypes.TermQuery{"collection.keyword": {Value: collection}}}},
				Must:   []estypes.Query{{Match: map[string]estypes.MatchQuery{"content": {Query: query}}}},
			},
		},
		Size: &k,
	}).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	results := make([]lexical.Result, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		var d doc
		if err := json.Unmarshal(hit.Source_, &d); err != nil {
			logger.Warnf(ctx, "skipping unparseable elasticsearch hit: %v", err)
			continue
		}
		score := 0.0
		if hit.Score_ != nil {
			score = float64(*hit.Score_)
		}
		results = append(results, lexical.Result{Chunk: d.toChunk(), Score: score})
	}
	return results, nil
}
