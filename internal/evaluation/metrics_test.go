package evaluation

import "testing"

func TestPrecisionAndRecall(t *testing.T) {
	retrieved := []string{"a", "b", "c"}
	relevant := []string{"b", "c", "d"}

	if got := precision(retrieved, relevant); got != 2.0/3.0 {
		t.Errorf("precision = %v, want %v", got, 2.0/3.0)
	}
	if got := recall(retrieved, relevant); got != 2.0/3.0 {
		t.Errorf("recall = %v, want %v", got, 2.0/3.0)
	}
}

func TestPrecisionEmptyRetrievalIsPerfect(t *testing.T) {
	if got := precision(nil, []string{"a"}); got != 1.0 {
		t.Errorf("precision(nil, ...) = %v, want 1.0", got)
	}
}

func TestRecallEmptyRelevantIsPerfect(t *testing.T) {
	if got := recall([]string{"a"}, nil); got != 1.0 {
		t.Errorf("recall(..., nil) = %v, want 1.0", got)
	}
}

func TestReciprocalRank(t *testing.T) {
	cases := []struct {
		name      string
		retrieved []string
		relevant  []string
		want      float64
	}{
		{"first hit", []string{"a", "b", "c"}, []string{"a"}, 1.0},
		{"second hit", []string{"a", "b", "c"}, []string{"b"}, 0.5},
		{"third hit", []string{"a", "b", "c"}, []string{"c"}, 1.0 / 3.0},
		{"no hit", []string{"a", "b", "c"}, []string{"z"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := reciprocalRank(tc.retrieved, tc.relevant); got != tc.want {
				t.Errorf("reciprocalRank = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAggregateEmptyResults(t *testing.T) {
	report := aggregate(nil)
	if report.MeanPrecision != 0 || report.MeanRecall != 0 || report.MeanMRR != 0 {
		t.Errorf("aggregate(nil) produced non-zero means: %+v", report)
	}
}

func TestAggregateAveragesAcrossResults(t *testing.T) {
	results := []QueryResult{
		{Precision: 1.0, Recall: 1.0, ReciprocalRank: 1.0, WasGrounded: true, GroundednessScore: 0.9},
		{Precision: 0.0, Recall: 0.0, ReciprocalRank: 0.0, WasGrounded: false, GroundednessScore: 0.1},
	}
	report := aggregate(results)
	if report.MeanPrecision != 0.5 {
		t.Errorf("MeanPrecision = %v, want 0.5", report.MeanPrecision)
	}
	if report.GroundedFraction != 0.5 {
		t.Errorf("GroundedFraction = %v, want 0.5", report.GroundedFraction)
	}
}
