// Package pgvectorstore is the reference capability.VectorStore
// implementation: gorm over PostgreSQL with the pgvector extension,
// grounded on the teacher's retriever/postgres pgRepository. The child
// chunk is the unit of embedding and similarity search; ParentContext
// is denormalized onto every row so expansion to the parent never
// needs a second query (the atomic-retrieval option the collection's
// data model calls for).
package pgvectorstore

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

// chunkRow is the embeddings table row. Collection plus ChunkID forms
// the natural key; Dimension is stored alongside the vector so a
// similarity search only considers rows embedded at the query's
// dimension: rows from a model of another dimension are left out
// rather than scored.
type chunkRow struct {
	ID            uint      `gorm:"primarykey"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	Collection    string    `gorm:"column:collection;index:idx_chunk_collection;not null"`
	ChunkID       string    `gorm:"column:chunk_id;uniqueIndex:idx_chunk_unique;not null"`
	DocumentID    string    `gorm:"column:document_id;not null"`
	Source        string    `gorm:"column:source"`
	Page          int       `gorm:"column:page"`
	Content       string    `gorm:"column:content;not null"`
	ParentID      string    `gorm:"column:parent_id"`
	ParentContext string    `gorm:"column:parent_context"`
	ChildIndex    int       `gorm:"column:child_index"`
	ParentIndex   int       `gorm:"column:parent_index"`
	Dimension     int       `gorm:"column:dimension;not null"`
	Embedding     pgvector.HalfVector `gorm:"column:embedding;not null"`
}

func (chunkRow) TableName() string {
	return "embeddings"
}

// chunkRowWithScore extends chunkRow with the cosine distance (lower is
// closer) computed in the SELECT clause.
type chunkRowWithScore struct {
	chunkRow
	Score float64 `gorm:"column:score"`
}

func (chunkRowWithScore) TableName() string {
	return "embeddings"
}
