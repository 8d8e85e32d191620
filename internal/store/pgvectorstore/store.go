package pgvectorstore

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/support"
)

// Store is the pgvector-backed capability.VectorStore implementation.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// toRow strips invalid UTF-8 and NUL bytes from chunk text before it
// reaches Postgres, which rejects NUL outright in a text column.
func toRow(c capability.ChunkRecord) chunkRow {
	return chunkRow{
		Collection:    c.Collection,
		ChunkID:       c.ChunkID,
		DocumentID:    c.DocumentID,
		Source:        c.Source,
		Page:          c.Page,
		Content:       support.CleanInvalidUTF8(c.Content),
		ParentID:      c.ParentID,
		ParentContext: support.CleanInvalidUTF8(c.ParentContext),
		ChildIndex:    c.ChildIndex,
		ParentIndex:   c.ParentIndex,
		Dimension:     len(c.Embedding),
		Embedding:     pgvector.NewHalfVector(c.Embedding),
	}
}

func (r chunkRow) toScoredChunk(distance float64) capability.ScoredChunk {
	return capability.ScoredChunk{
		ChunkID:       r.ChunkID,
		DocumentID:    r.DocumentID,
		Source:        r.Source,
		Page:          r.Page,
		Content:       r.Content,
		ParentID:      r.ParentID,
		ParentContext: r.ParentContext,
		ChildIndex:    r.ChildIndex,
		ParentIndex:   r.ParentIndex,
		Distance:      distance,
	}
}

// Add batch-inserts chunk records, skipping conflicts on the unique
// chunk_id index so a retried ingestion step is idempotent.
func (s *Store) Add(ctx context.Context, chunks []capability.ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}
	rows := make([]chunkRow, len(chunks))
	for i, c := range chunks {
		rows[i] = toRow(c)
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error; err != nil {
		logger.Errorf(ctx, "pgvectorstore: batch insert of %d chunks failed: %v", len(chunks), err)
		return fmt.Errorf("pgvectorstore: add: %w", err)
	}
	return nil
}

// Delete removes every chunk in a collection, used when a collection
// is torn down entirely.
func (s *Store) Delete(ctx context.Context, collection string) error {
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).Delete(&chunkRow{}).Error; err != nil {
		return fmt.Errorf("pgvectorstore: delete collection %s: %w", collection, err)
	}
	return nil
}

// DeleteByMetadata removes chunks matching an equality filter, e.g.
// {"document_id": "doc-42"} to retract one ingested document without
// rebuilding the whole collection.
func (s *Store) DeleteByMetadata(ctx context.Context, collection string, filter map[string]any) error {
	q := s.db.WithContext(ctx).Where("collection = ?", collection)
	for k, v := range filter {
		q = q.Where(fmt.Sprintf("%s = ?", k), v)
	}
	if err := q.Delete(&chunkRow{}).Error; err != nil {
		return fmt.Errorf("pgvectorstore: delete by metadata on %s: %w", collection, err)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	var collections []string
	err := s.db.WithContext(ctx).Model(&chunkRow{}).Distinct("collection").Pluck("collection", &collections).Error
	if err != nil {
		return nil, fmt.Errorf("pgvectorstore: list collections: %w", err)
	}
	return collections, nil
}

// GetAllChunks returns up to limit chunks from a collection with no
// similarity ordering; the sequential retriever does its own ordering
// by (page, parent_index, child_index) after this call.
func (s *Store) GetAllChunks(ctx context.Context, collection string, limit int) ([]capability.ScoredChunk, error) {
	var rows []chunkRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pgvectorstore: get all chunks for %s: %w", collection, err)
	}
	out := make([]capability.ScoredChunk, len(rows))
	for i, r := range rows {
		out[i] = r.toScoredChunk(0)
	}
	return out, nil
}

func (s *Store) GetCollectionInfo(ctx context.Context, collection string) (*capability.CollectionInfo, bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&chunkRow{}).Where("collection = ?", collection).Count(&count).Error
	if err != nil {
		return nil, false, fmt.Errorf("pgvectorstore: count for %s: %w", collection, err)
	}
	if count == 0 {
		return &capability.CollectionInfo{Count: 0}, false, nil
	}
	return &capability.CollectionInfo{Count: int(count)}, true, nil
}

// SimilaritySearchWithScore ranks by cosine distance using pgvector's
// <=> operator, restricted to rows embedded at the same dimension as
// the query (a collection embedded with a different model never
// silently cross-matches).
func (s *Store) SimilaritySearchWithScore(
	ctx context.Context, query []float32, collection string, k int,
) ([]capability.ScoredChunk, error) {
	dim := len(query)
	vec := pgvector.NewHalfVector(query)

	var rows []chunkRowWithScore
	err := s.db.WithContext(ctx).
		Model(&chunkRow{}).
		Where("collection = ? AND dimension = ?", collection, dim).
		Select(fmt.Sprintf(
			"*, (embedding::halfvec(%d) <=> ?::halfvec) as score", dim,
		), vec).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  fmt.Sprintf("embedding::halfvec(%d) <=> ?::halfvec", dim),
			Vars: []interface{}{vec},
		}}).
		Limit(k).
		Find(&rows).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		logger.Errorf(ctx, "pgvectorstore: similarity search on %s failed: %v", collection, err)
		return nil, fmt.Errorf("pgvectorstore: similarity search: %w", err)
	}

	out := make([]capability.ScoredChunk, len(rows))
	for i, r := range rows {
		// score here is cosine distance (0 = identical); ScoredChunk's
		// Distance carries it through as-is, and callers that want a
		// similarity (1 - distance) convert at the point of use.
		out[i] = r.chunkRow.toScoredChunk(r.Score)
	}
	return out, nil
}

var _ capability.VectorStore = (*Store)(nil)
