package embedding

import (
	"fmt"
)

// FailedInput is one text that could not be embedded.
type FailedInput struct {
	Index int
	Err   error
}

// BatchError reports a partially failed EmbedDocuments call.
type BatchError struct {
	Total  int
	Failed []FailedInput
	// Vectors has one slot per input; failed slots are nil.
	Vectors [][]float32
}

func (e *BatchError) Error() string {
	if len(e.Failed) == 0 {
		return "embedding failed"
	}
	return fmt.Sprintf("embedding failed for %d of %d inputs (first failure at input %d: %v)",
		len(e.Failed), e.Total, e.Failed[0].Index, e.Failed[0].Err)
}

// Unwrap exposes the distinct underlying causes to errors.Is / errors.As.
func (e *BatchError) Unwrap() []error {
	seen := make(map[error]bool)
	var errs []error
	for _, f := range e.Failed {
		if f.Err != nil && !seen[f.Err] {
			seen[f.Err] = true
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// FailedIndexes lists the input positions that failed, in order.
func (e *BatchError) FailedIndexes() []int {
	out := make([]int, len(e.Failed))
	for i, f := range e.Failed {
		out[i] = f.Index
	}
	return out
}
