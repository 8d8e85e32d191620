package types

// PipelineState is the single mutable record threaded through the
// orchestrator's plugin chain for one query. Each plugin reads the
// fields it needs and writes the fields it owns; nothing is recomputed
// from scratch between stages. Mirrors the teacher's ChatManage in
// shape (one struct carried by reference through an EventManager chain)
// but its fields are this engine's own pipeline state, not a chat
// message payload.
type PipelineState struct {
	// --- input ---
	RequestID     string
	SessionID     string
	Collection    string
	Question      string
	MaxIterations int

	// --- classification ---
	Classification   Classification
	Complexity       QueryComplexity
	SkipRewrite      bool
	IsSummarization  bool
	IsGarbage        bool

	// --- query processing ---
	RewrittenQuery string
	RewriteCount   int

	// --- retrieval ---
	RetrievedDocuments []RetrievedDocument
	RelevantDocuments  []RetrievedDocument
	CollectionEmpty    bool

	// --- generation ---
	Answer    string
	Sources   []Source
	Iteration int

	// --- verification ---
	IsGrounded          bool
	GroundednessScore   float64
	FastGroundednessScore float64
	SkipLLMCheck        bool
	HallucinationDetails string

	// --- provenance ---
	ProcessingSteps []string
	Errors          []StageError
}

// StageError records the stage whose plugin chain failed and its
// message. The orchestrator records it just before returning the
// failure as an error, which ends the request.
type StageError struct {
	Stage   string
	Message string
}

// RecordStep appends a processing-step name to the provenance trail.
// Each stage calls this once its work is done, so a finished
// PipelineState carries a full trace of which stages ran, in order.
func (s *PipelineState) RecordStep(step string) {
	s.ProcessingSteps = append(s.ProcessingSteps, step)
}

// RecordError appends a stage error to the provenance trail; it does
// not itself stop the pipeline.
func (s *PipelineState) RecordError(stage, message string) {
	s.Errors = append(s.Errors, StageError{Stage: stage, Message: message})
}

// CheckInvariants validates the structural invariants that must hold
// after the pipeline finishes: iteration and rewrite counts are bounded
// by MaxIterations, and a garbage classification implies no retrieval
// was attempted.
func (s *PipelineState) CheckInvariants() []string {
	var violations []string
	if s.Iteration > s.MaxIterations {
		violations = append(violations, "iteration exceeds max_iterations")
	}
	if s.RewriteCount > s.MaxIterations {
		violations = append(violations, "rewrite_count exceeds max_iterations")
	}
	if s.IsGarbage {
		if len(s.RetrievedDocuments) != 0 || len(s.RelevantDocuments) != 0 {
			violations = append(violations, "garbage query has non-empty retrieval fields")
		}
	}
	return violations
}
