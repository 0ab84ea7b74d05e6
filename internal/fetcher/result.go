package fetcher

import "bitableqa/internal/record"

// Result represents the outcome of a pagination run.
type Result struct {
	// Records holds every item received, in page order then intra-page order
	Records []record.RawRecord

	// Pages is the number of pages that were fetched successfully
	Pages int

	// Err is set when pagination stopped before the source reported the
	// last page. Records is still valid and holds everything fetched so far.
	Err error
}

// Truncated reports whether the run stopped early.
func (r Result) Truncated() bool {
	return r.Err != nil
}
