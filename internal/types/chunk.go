package types

// Chunk is a unit of retrievable text produced at ingestion time by a
// two-level split. A child chunk (~400 chars) is embedded and indexed for
// precise matching; its ParentContext (~2000 chars) is carried redundantly
// in the metadata so the hybrid retriever can expand to the parent without
// a second lookup (Option A in the data model: atomic retrieval).
type Chunk struct {
	// ChunkID uniquely identifies this child chunk within its collection.
	ChunkID string `json:"chunk_id"`
	// DocumentID identifies the source document this chunk was split from.
	DocumentID string `json:"document_id"`
	// Collection is the keyspace this chunk belongs to. A chunk belongs to
	// exactly one collection.
	Collection string `json:"collection"`
	// Source is the human-readable source name (e.g. filename).
	Source string `json:"source"`
	// Page is the 1-based page number, if the source document is paginated.
	Page int `json:"page,omitempty"`

	// Content is the child chunk's own text, the unit that gets embedded
	// and keyword-indexed.
	Content string `json:"content"`

	// ParentID identifies the parent chunk this child belongs to. Parents
	// are not stored as independent records; ParentContext below is the
	// parent's full text, duplicated into every child that belongs to it.
	ParentID string `json:"parent_id,omitempty"`
	// ParentContext is the text that would be obtained by joining this
	// chunk's siblings in order — the coherent passage returned to the
	// generator once a child chunk is selected as relevant.
	ParentContext string `json:"parent_context,omitempty"`

	// ChildIndex is this chunk's position among its parent's children.
	ChildIndex int `json:"child_index"`
	// ParentIndex is the parent's position within the document.
	ParentIndex int `json:"parent_index"`
}

// Clone returns a shallow copy safe to mutate independently of the
// original (metadata maps aside, Chunk has no reference fields that need
// deep copying).
func (c Chunk) Clone() Chunk {
	return c
}
