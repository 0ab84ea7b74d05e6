package fetcher

import (
	"context"

	"bitableqa/internal/record"
)

// Credential is a short-lived bearer token. Its TTL is not tracked; a new
// one is obtained for every load.
type Credential string

// Locator identifies a remote table: the Bitable app token plus the table id.
type Locator struct {
	AppToken string
	TableID  string
}

// Page is one page of records as returned by the table service.
type Page struct {
	Items []record.RawRecord
	// NextCursor is empty when the source sent no continuation token.
	NextCursor string
	HasMore    bool
	Total      int
}

// TokenProvider exchanges application credentials for a bearer credential.
type TokenProvider interface {
	// Token performs a single exchange. Any failure is returned as an error
	// wrapping ErrNoCredential.
	Token(ctx context.Context) (Credential, error)
}

// PageFetcher retrieves one page of records.
type PageFetcher interface {
	// FetchPage requests the page after cursor; an empty cursor means the
	// first page. A nil page is always accompanied by an error.
	FetchPage(ctx context.Context, cred Credential, loc Locator, cursor string) (*Page, error)
}
