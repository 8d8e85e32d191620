// Package evaluation is an offline harness that runs labeled queries
// through the retrieval and full pipeline and reports aggregate
// retrieval/groundedness metrics, written out as parquet. Supplemented
// from the teacher's evaluation service and metric/mrr.go, which the
// distilled spec dropped entirely — this repository keeps the same
// shape (a labeled-query-set runner with precision/recall/MRR) applied
// to the hybrid retriever and groundedness verifier instead of the
// teacher's single-vector retrieval engine.
package evaluation

// QueryLabel is one labeled evaluation example: a query and the set of
// chunk IDs considered relevant to it (the ground truth the teacher's
// MetricInput.RetrievalGT plays the same role as).
type QueryLabel struct {
	Query            string   `parquet:"query"`
	RelevantChunkIDs []string `parquet:"relevant_chunk_ids"`
}

// QueryResult is one query's outcome, the unit written to the
// parquet report.
type QueryResult struct {
	Query             string  `parquet:"query"`
	Precision         float64 `parquet:"precision"`
	Recall            float64 `parquet:"recall"`
	ReciprocalRank    float64 `parquet:"reciprocal_rank"`
	RetrievedCount    int     `parquet:"retrieved_count"`
	WasGrounded       bool    `parquet:"was_grounded"`
	GroundednessScore float64 `parquet:"groundedness_score"`
	Answer            string  `parquet:"answer"`
}

// Report aggregates per-query results across a labeled set.
type Report struct {
	Results           []QueryResult
	MeanPrecision     float64
	MeanRecall        float64
	MeanMRR           float64
	MeanGroundedness  float64
	GroundedFraction  float64
}
