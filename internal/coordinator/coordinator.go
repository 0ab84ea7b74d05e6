package coordinator

import (
	"context"
	"fmt"

	"bitableqa/internal/fetcher"
	"bitableqa/internal/logger"
	"bitableqa/internal/record"
)

// Report is the outcome of one load.
type Report struct {
	Table *record.Table

	// Pages is the number of pages fetched successfully
	Pages int

	// Err is set when pagination stopped early; Table then holds only the
	// records fetched before the failure
	Err error
}

// Truncated reports whether the table may be missing records.
func (r *Report) Truncated() bool {
	return r.Err != nil
}

// Coordinator runs the load pipeline: credential exchange, pagination, and
// normalization, strictly in that order.
type Coordinator struct {
	tokens     fetcher.TokenProvider
	paginator  *fetcher.Paginator
	normalizer *record.Normalizer
	locator    fetcher.Locator
}

// New creates a new Coordinator for the table at loc
func New(tokens fetcher.TokenProvider, pages fetcher.PageFetcher, normalizer *record.Normalizer, loc fetcher.Locator) *Coordinator {
	return &Coordinator{
		tokens:     tokens,
		paginator:  fetcher.NewPaginator(pages),
		normalizer: normalizer,
		locator:    loc,
	}
}

// Run obtains a credential, fetches every page and normalizes the records.
// If no credential can be obtained the error is returned and no page is
// requested. Pagination failures do not fail the run; they are reported in
// Report.Err alongside whatever was fetched.
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	log := logger.FromContext(ctx)

	cred, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain tenant access token: %w", err)
	}

	res := c.paginator.All(ctx, cred, c.locator)
	table := c.normalizer.Table(res.Records)

	event := log.Info()
	if res.Truncated() {
		event = log.Warn().Err(res.Err)
	}
	event.
		Str("table_id", c.locator.TableID).
		Int("pages", res.Pages).
		Int("rows", table.Len()).
		Msg("table loaded")

	return &Report{
		Table: table,
		Pages: res.Pages,
		Err:   res.Err,
	}, nil
}
