package fetcher

import (
	"context"
	"fmt"

	"bitableqa/internal/logger"
	"bitableqa/internal/record"
)

// Paginator drives a PageFetcher until the source is exhausted.
type Paginator struct {
	pages PageFetcher
}

// NewPaginator creates a Paginator over the given page fetcher
func NewPaginator(pages PageFetcher) *Paginator {
	return &Paginator{pages: pages}
}

// All fetches pages sequentially, starting without a cursor and feeding each
// page's cursor into the next request, and accumulates their items.
//
// Each page is requested at most once. A failed page ends the run: the
// records fetched before it are returned and Result.Err holds the failure.
func (p *Paginator) All(ctx context.Context, cred Credential, loc Locator) Result {
	log := logger.FromContext(ctx)

	var (
		res    = Result{Records: []record.RawRecord{}}
		cursor string
	)

	for {
		page, err := p.pages.FetchPage(ctx, cred, loc, cursor)
		if err != nil {
			res.Err = fmt.Errorf("page %d: %w", res.Pages+1, err)
			log.Warn().
				Err(err).
				Int("pages", res.Pages).
				Int("records", len(res.Records)).
				Msg("pagination stopped early, keeping records fetched so far")
			return res
		}

		res.Pages++
		res.Records = append(res.Records, page.Items...)

		log.Debug().
			Int("page", res.Pages).
			Int("items", len(page.Items)).
			Bool("has_more", page.HasMore).
			Msg("fetched page")

		if !page.HasMore {
			return res
		}

		if page.NextCursor == "" {
			res.Err = fmt.Errorf("page %d: %w", res.Pages, ErrMissingCursor)
			log.Warn().
				Int("pages", res.Pages).
				Msg("source reported more pages without a cursor, stopping")
			return res
		}

		cursor = page.NextCursor
	}
}
