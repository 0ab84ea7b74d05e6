package feishu

import (
	"context"
	"strconv"

	"bitableqa/internal/fetcher"
	"bitableqa/internal/logger"
	"bitableqa/internal/ratelimit"
	"bitableqa/internal/record"

	"resty.dev/v3"
)

const (
	recordsPath = "/bitable/v1/apps/{app_token}/tables/{table_id}/records"

	// DefaultPageSize is the largest page the records endpoint serves
	DefaultPageSize = 500
)

// RecordsResponse represents the Feishu response for a page of Bitable records
type RecordsResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *struct {
		Items     []record.RawRecord `json:"items"`
		PageToken string             `json:"page_token"`
		HasMore   bool               `json:"has_more"`
		Total     int                `json:"total"`
	} `json:"data"`
}

// RecordFetcher lists Bitable records one page at a time
type RecordFetcher struct {
	pageSize int
	client   *resty.Client
}

// NewRecordFetcher creates a record fetcher. Page sizes outside 1..500 fall
// back to DefaultPageSize.
func NewRecordFetcher(baseURL string, pageSize, retryCount int) *RecordFetcher {
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}

	return &RecordFetcher{
		pageSize: pageSize,
		client:   fetcher.NewHTTPClient(baseURL, retryCount),
	}
}

// PageSize returns the page size sent with every request
func (f *RecordFetcher) PageSize() int {
	return f.pageSize
}

// FetchPage retrieves the page of records after cursor. Transport failures
// and non-zero response codes are logged and returned as *fetcher.FetchError.
func (f *RecordFetcher) FetchPage(ctx context.Context, cred fetcher.Credential, loc fetcher.Locator, cursor string) (*fetcher.Page, error) {
	log := logger.FromContext(ctx).With().
		Str("app_token", loc.AppToken).
		Str("table_id", loc.TableID).
		Str("page_token", cursor).
		Logger()

	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIFeishu); err != nil {
		return nil, fetcher.ClassifyTransportError(err)
	}

	var result RecordsResponse

	req := f.client.R().
		SetContext(ctx).
		SetAuthToken(string(cred)).
		SetPathParams(map[string]string{
			"app_token": loc.AppToken,
			"table_id":  loc.TableID,
		}).
		SetQueryParam("page_size", strconv.Itoa(f.pageSize)).
		SetResult(&result)

	if cursor != "" {
		req.SetQueryParam("page_token", cursor)
	}

	resp, err := req.Get(recordsPath)
	if err != nil {
		log.Error().Err(err).Msg("bitable records request failed")
		return nil, fetcher.ClassifyTransportError(err)
	}

	if !resp.IsSuccess() {
		log.Error().
			Int("status_code", resp.StatusCode()).
			Str("body", resp.String()).
			Msg("bitable records request rejected")
		return nil, fetcher.ClassifyHTTPError(resp.StatusCode())
	}

	if result.Code != 0 {
		log.Error().
			Int("code", result.Code).
			Str("msg", result.Msg).
			Msg("error getting bitable records")
		return nil, fetcher.NewAPIError(result.Code, result.Msg)
	}

	if result.Data == nil {
		log.Error().Str("body", resp.String()).Msg("bitable records response has no data")
		return nil, fetcher.NewValidationError("data not found in response")
	}

	return &fetcher.Page{
		Items:      result.Data.Items,
		NextCursor: result.Data.PageToken,
		HasMore:    result.Data.HasMore,
		Total:      result.Data.Total,
	}, nil
}
