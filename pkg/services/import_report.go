package services

// RowOutcome is the explicit per-row result of an import resolution step.
// Skips are ordinary outcomes, not errors; only storage-level failures abort
// a batch.
type RowOutcome int

const (
	RowInserted RowOutcome = iota
	RowSkippedDuplicate
	RowSkippedMissingParent
	RowSkippedParseError
)

// BatchReport accumulates row outcomes over one batch run.
type BatchReport struct {
	Inserted             int `json:"inserted"`
	SkippedDuplicate     int `json:"skipped_duplicate"`
	SkippedMissingParent int `json:"skipped_missing_parent"`
	SkippedParseError    int `json:"skipped_parse_error"`
}

// Record counts one row outcome.
func (r *BatchReport) Record(outcome RowOutcome) {
	switch outcome {
	case RowInserted:
		r.Inserted++
	case RowSkippedDuplicate:
		r.SkippedDuplicate++
	case RowSkippedMissingParent:
		r.SkippedMissingParent++
	case RowSkippedParseError:
		r.SkippedParseError++
	}
}

// Total returns the number of rows the batch resolved, skipped or not.
func (r *BatchReport) Total() int {
	return r.Inserted + r.SkippedDuplicate + r.SkippedMissingParent + r.SkippedParseError
}
