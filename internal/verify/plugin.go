package verify

import (
	"context"
	"strings"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/config"
	"github.com/wekai-labs/ragqa/internal/logger"
	"github.com/wekai-labs/ragqa/internal/pipeline"
	"github.com/wekai-labs/ragqa/internal/types"
)

const fastSkipRetrievalScore = 0.70

// Plugin wires the two-tier verifier into the pipeline's
// check_hallucination stage.
type Plugin struct {
	model                  capability.LanguageModel
	prompts                config.PromptsConfig
	hallucinationThreshold float64
}

func NewPlugin(
	eventManager *pipeline.EventManager, model capability.LanguageModel,
	prompts config.PromptsConfig, hallucinationThreshold float64,
) *Plugin {
	p := &Plugin{model: model, prompts: prompts, hallucinationThreshold: hallucinationThreshold}
	eventManager.Register(p)
	return p
}

func (p *Plugin) ActivationEvents() []pipeline.Stage {
	return []pipeline.Stage{pipeline.StageCheckHallucination}
}

func (p *Plugin) OnEvent(
	ctx context.Context, stage pipeline.Stage, state *types.PipelineState, next func() *pipeline.PluginError,
) *pipeline.PluginError {
	state.Iteration++

	if p.shouldFastSkip(state) {
		state.IsGrounded = true
		state.SkipLLMCheck = true
		logger.Infof(ctx, "groundedness check fast-skipped request_id=%s (simple query, high-confidence retrieval)",
			state.RequestID)
		state.RecordStep("check_hallucination")
		return next()
	}

	sourceText := concatSources(state.RelevantDocuments)
	fast := ComputeFastScore(state.Answer, sourceText)
	state.FastGroundednessScore = fast.Combined

	switch fast.Verdict() {
	case VerdictGrounded:
		state.IsGrounded = true
		state.GroundednessScore = fast.Combined
	case VerdictNotGrounded:
		state.IsGrounded = false
		state.GroundednessScore = fast.Combined
		state.HallucinationDetails = "fast path: low lexical overlap with retrieved context"
	default:
		verdict := verifyModel(ctx, p.model, p.prompts, fast, sourceText, state.Answer)
		state.IsGrounded = verdict.Grounded && verdict.Score >= p.hallucinationThreshold
		state.GroundednessScore = verdict.Score
		if !state.IsGrounded {
			state.HallucinationDetails = verdict.Issues
		}
	}

	logger.Infof(ctx, "groundedness check request_id=%s grounded=%v score=%.2f iteration=%d",
		state.RequestID, state.IsGrounded, state.GroundednessScore, state.Iteration)
	state.RecordStep("check_hallucination")
	return next()
}

// shouldFastSkip implements the efficiency fast skip: simple
// complexity plus a high-confidence top retrieval hit rarely
// hallucinates, so verification is skipped entirely.
func (p *Plugin) shouldFastSkip(state *types.PipelineState) bool {
	if state.Complexity != types.ComplexitySimple {
		return false
	}
	if len(state.RelevantDocuments) == 0 {
		return false
	}
	return state.RelevantDocuments[0].Score >= fastSkipRetrievalScore
}

func concatSources(docs []types.RetrievedDocument) string {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString(d.Content)
		b.WriteString("\n")
	}
	return b.String()
}
