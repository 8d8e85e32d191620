package intent

import (
	"context"
	"testing"

	"github.com/wekai-labs/ragqa/internal/capability"
	"github.com/wekai-labs/ragqa/internal/types"
)

type fakeModel struct {
	response string
	err      error
}

func (m *fakeModel) Invoke(ctx context.Context, prompt capability.Prompt) (string, error) {
	return m.response, m.err
}
func (m *fakeModel) Stream(ctx context.Context, prompt capability.Prompt) (<-chan string, <-chan error) {
	return nil, nil
}

func TestClassifyModelParsesRecognizedCategory(t *testing.T) {
	got := classifyModel(context.Background(), &fakeModel{response: "GREETING"}, "hi")
	if got.Intent != types.IntentGreeting {
		t.Errorf("Intent = %v, want greeting", got.Intent)
	}
	if got.Confidence != 0.70 {
		t.Errorf("Confidence = %v, want 0.70", got.Confidence)
	}
}

func TestClassifyModelDefaultsToQuestionOnModelError(t *testing.T) {
	got := classifyModel(context.Background(), &fakeModel{err: context.DeadlineExceeded}, "anything")
	if got.Intent != types.IntentQuestion {
		t.Errorf("Intent = %v, want question fallback", got.Intent)
	}
	if got.Confidence != 0.30 {
		t.Errorf("Confidence = %v, want 0.30", got.Confidence)
	}
}

func TestClassifyModelDefaultsToQuestionOnUnrecognizedResponse(t *testing.T) {
	got := classifyModel(context.Background(), &fakeModel{response: "I'm not sure what category this is"}, "anything")
	if got.Intent != types.IntentQuestion {
		t.Errorf("Intent = %v, want question fallback for an unparseable response", got.Intent)
	}
	if got.Confidence != 0.30 {
		t.Errorf("Confidence = %v, want 0.30", got.Confidence)
	}
}

func TestClassifyModelCaseInsensitiveAndTrimmed(t *testing.T) {
	got := classifyModel(context.Background(), &fakeModel{response: "  command  "}, "do this")
	if got.Intent != types.IntentCommand {
		t.Errorf("Intent = %v, want command", got.Intent)
	}
}
