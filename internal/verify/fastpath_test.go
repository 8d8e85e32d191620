package verify

import "testing"

func TestComputeFastScoreDeterministic(t *testing.T) {
	answer := "the CAP theorem states that a distributed system cannot guarantee consistency, availability, and partition tolerance simultaneously"
	source := "In distributed systems, the CAP theorem states that a distributed system cannot guarantee consistency, availability, and partition tolerance simultaneously."

	first := ComputeFastScore(answer, source)
	second := ComputeFastScore(answer, source)

	if first != second {
		t.Fatalf("ComputeFastScore not deterministic: %+v vs %+v", first, second)
	}
}

func TestFastScoreVerdictThresholds(t *testing.T) {
	cases := []struct {
		name    string
		score   FastScore
		verdict Verdict
	}{
		{"grounded", FastScore{Combined: 0.95}, VerdictGrounded},
		{"at grounded boundary", FastScore{Combined: groundedThreshold}, VerdictGrounded},
		{"not grounded", FastScore{Combined: 0.1}, VerdictNotGrounded},
		{"just below not-grounded boundary", FastScore{Combined: notGroundedThreshold - 0.01}, VerdictNotGrounded},
		{"ambiguous", FastScore{Combined: 0.5}, VerdictAmbiguous},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.score.Verdict(); got != tc.verdict {
				t.Errorf("Verdict() = %v, want %v", got, tc.verdict)
			}
		})
	}
}

func TestComputeFastScoreNoOverlap(t *testing.T) {
	score := ComputeFastScore("completely unrelated text about penguins", "this source discusses quarterly revenue figures")
	if score.Verdict() != VerdictNotGrounded {
		t.Errorf("expected unrelated answer/source to be not grounded, got %+v", score)
	}
}

func TestComputeFastScoreHighOverlap(t *testing.T) {
	source := "load balancers distribute incoming network traffic across multiple backend servers to improve reliability and throughput"
	answer := "load balancers distribute incoming network traffic across multiple backend servers"
	score := ComputeFastScore(answer, source)
	if score.Verdict() != VerdictGrounded {
		t.Errorf("expected near-verbatim answer to be grounded, got %+v", score)
	}
}
