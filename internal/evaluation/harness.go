package evaluation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/retrieval"
)

const defaultPoolSize = 5

// Harness runs a labeled query set through the hybrid retriever (for
// precision/recall/MRR) and the full orchestrator (for groundedness),
// the way the teacher's EvaluationService drove its retrieval engine
// and metric package against a fixed dataset, generalized here to
// also score the generation side since this engine's correctness
// claim is end-to-end, not retrieval-only. Queries run concurrently
// over a bounded ants.Pool, the same wg+pool.Submit shape the
// teacher's batchEmbedder uses to fan document chunks out across a
// worker pool, applied here to whole labeled queries instead.
type Harness struct {
	retriever    *retrieval.HybridRetriever
	orchestrator *pipeline.Orchestrator
	pool         *ants.Pool
}

func NewHarness(retriever *retrieval.HybridRetriever, orchestrator *pipeline.Orchestrator, pool *ants.Pool) *Harness {
	return &Harness{retriever: retriever, orchestrator: orchestrator, pool: pool}
}

// NewDefaultPool builds the bounded worker pool NewHarness expects,
// sized for a handful of concurrent model calls without overwhelming
// whatever chat/embedding backend the harness is pointed at.
func NewDefaultPool() (*ants.Pool, error) {
	return ants.NewPool(defaultPoolSize)
}

// Run scores every label against collection and returns the aggregate
// report. A single query's failure is recorded as a zero-score row
// rather than aborting the whole run, so one bad query never hides the
// scores of the rest of the set.
func (h *Harness) Run(ctx context.Context, collection string, labels []QueryLabel) (*Report, error) {
	results := make([]QueryResult, len(labels))

	var wg sync.WaitGroup
	for i, label := range labels {
		i, label := i, label
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = h.runOne(ctx, collection, label)
		}
		if h.pool != nil {
			if err := h.pool.Submit(task); err != nil {
				logger.Warnf(ctx, "evaluation: pool submit failed for %q, running inline: %v", label.Query, err)
				task()
			}
		} else {
			task()
		}
	}
	wg.Wait()

	return aggregate(results), nil
}

func (h *Harness) runOne(ctx context.Context, collection string, label QueryLabel) QueryResult {
	result := QueryResult{Query: label.Query}

	docs, _, err := h.retriever.Retrieve(ctx, collection, label.Query)
	if err != nil {
		logger.Warnf(ctx, "evaluation: retrieve failed for %q: %v", label.Query, err)
		return result
	}

	retrievedIDs := make([]string, 0, len(docs))
	for _, doc := range docs {
		retrievedIDs = append(retrievedIDs, doc.Metadata.ChunkID)
	}
	result.RetrievedCount = len(retrievedIDs)
	result.Precision = precision(retrievedIDs, label.RelevantChunkIDs)
	result.Recall = recall(retrievedIDs, label.RelevantChunkIDs)
	result.ReciprocalRank = reciprocalRank(retrievedIDs, label.RelevantChunkIDs)

	requestID := uuid.NewString()
	sessionID := "eval-" + requestID
	state := pipeline.NewState(requestID, sessionID, collection, label.Query)
	if err := h.orchestrator.Run(ctx, state); err != nil {
		logger.Warnf(ctx, "evaluation: generation failed for %q: %v", label.Query, err)
		return result
	}

	result.Answer = state.Answer
	result.WasGrounded = state.IsGrounded
	result.GroundednessScore = state.GroundednessScore
	return result
}

func aggregate(results []QueryResult) *Report {
	report := &Report{Results: results}
	if len(results) == 0 {
		return report
	}

	var sumPrecision, sumRecall, sumMRR, sumGroundedness float64
	var groundedCount int
	for _, r := range results {
		sumPrecision += r.Precision
		sumRecall += r.Recall
		sumMRR += r.ReciprocalRank
		sumGroundedness += r.GroundednessScore
		if r.WasGrounded {
			groundedCount++
		}
	}

	n := float64(len(results))
	report.MeanPrecision = sumPrecision / n
	report.MeanRecall = sumRecall / n
	report.MeanMRR = sumMRR / n
	report.MeanGroundedness = sumGroundedness / n
	report.GroundedFraction = float64(groundedCount) / n
	return report
}
