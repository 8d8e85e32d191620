package types

// RetrievedDocument is a scored document as it flows through the
// retrieval → rerank → generation stages. Before parent expansion it
// mirrors a Chunk's child content; after expansion Content holds the
// parent's text.
type RetrievedDocument struct {
	Content  string            `json:"content"`
	Metadata DocumentMetadata  `json:"metadata"`
	Score    float64           `json:"score"`
}

// DocumentMetadata carries provenance for a RetrievedDocument: enough to
// render a source list entry and to dedupe/expand during retrieval.
type DocumentMetadata struct {
	ChunkID     string `json:"chunk_id"`
	DocumentID  string `json:"document_id"`
	Source      string `json:"source"`
	Page        int    `json:"page,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	IsExpanded  bool   `json:"is_expanded,omitempty"`
	RetrievalScore float64 `json:"retrieval_score,omitempty"`
}

// Source is a single entry in the user-visible source list: one per
// distinct source filename, deduplicated to the best-scoring chunk.
type Source struct {
	Filename        string  `json:"filename"`
	ChunkID         string  `json:"chunk_id"`
	RelevanceScore  float64 `json:"relevance_score"`
	ContentPreview  string  `json:"content_preview"`
	Page            int     `json:"page,omitempty"`
}

// QueryComplexity is the router's classification of a query, used to
// drive branch selection and adaptive top-K.
type QueryComplexity string

const (
	ComplexitySimple        QueryComplexity = "simple"
	ComplexityComplex       QueryComplexity = "complex"
	ComplexityConversational QueryComplexity = "conversational"
	ComplexitySummarize     QueryComplexity = "summarize"
	ComplexityGarbage       QueryComplexity = "garbage"
)

// Intent is the coarse category an utterance is classified into before
// any retrieval decision is made.
type Intent string

const (
	IntentQuestion      Intent = "question"
	IntentGreeting      Intent = "greeting"
	IntentGratitude     Intent = "gratitude"
	IntentFollowup      Intent = "followup"
	IntentSimplify      Intent = "simplify"
	IntentDeepen        Intent = "deepen"
	IntentClarifyNeeded Intent = "clarify_needed"
	IntentCommand       Intent = "command"
	IntentGarbage       Intent = "garbage"
	IntentOffTopic      Intent = "off_topic"
)

// Classification is the intent classifier's verdict.
type Classification struct {
	Intent     Intent
	Confidence float64
}
