package evaluation

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// LoadLabels reads a labeled query set from a parquet file, the same
// generic parquet.ReadFile[T] helper the teacher's dataset loader uses
// for queries.parquet/corpus.parquet/qrels.parquet.
func LoadLabels(path string) ([]QueryLabel, error) {
	labels, err := parquet.ReadFile[QueryLabel](path)
	if err != nil {
		return nil, fmt.Errorf("evaluation: load labels from %s: %w", path, err)
	}
	return labels, nil
}

// WriteReport persists a report's per-query rows to path, so a run's
// results can be diffed against a prior run's file.
func WriteReport(path string, report *Report) error {
	if err := parquet.WriteFile(path, report.Results); err != nil {
		return fmt.Errorf("evaluation: write report to %s: %w", path, err)
	}
	return nil
}
