package feishu

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitableqa/internal/fetcher"
)

var testLocator = fetcher.Locator{AppToken: "appTok", TableID: "tblID"}

func TestNewRecordFetcher_PageSize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultPageSize},
		{-5, DefaultPageSize},
		{100, 100},
		{500, 500},
		{501, DefaultPageSize},
	}

	for _, tt := range tests {
		if got := NewRecordFetcher("http://localhost", tt.in, 0).PageSize(); got != tt.want {
			t.Errorf("NewRecordFetcher(%d).PageSize() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRecordFetcher_FetchPage_FirstPage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/bitable/v1/apps/appTok/tables/tblID/records"; r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer t-abc" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer t-abc")
		}
		if got := r.URL.Query().Get("page_size"); got != "500" {
			t.Errorf("page_size = %q, want 500", got)
		}
		if r.URL.Query().Has("page_token") {
			t.Errorf("page_token sent on first page: %q", r.URL.Query().Get("page_token"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"code": 0,
			"msg": "success",
			"data": {
				"has_more": true,
				"page_token": "next-1",
				"total": 3,
				"items": [
					{"record_id": "rec1", "fields": {"日期": 1700000000000, "金额": 10}},
					{"record_id": "rec2", "fields": {"一级分类": "餐饮"}}
				]
			}
		}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	f := NewRecordFetcher(server.URL, 500, 0)

	page, err := f.FetchPage(context.Background(), "t-abc", testLocator, "")
	if err != nil {
		t.Fatalf("FetchPage() returned unexpected error: %v", err)
	}

	if len(page.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(page.Items))
	}
	if page.Items[0].ID != "rec1" || page.Items[1].ID != "rec2" {
		t.Errorf("Items ids = %q, %q, want rec1, rec2", page.Items[0].ID, page.Items[1].ID)
	}
	if v, ok := page.Items[0].Number("日期"); !ok || v != 1700000000000 {
		t.Errorf("Items[0] 日期 = %v, %v, want 1700000000000", v, ok)
	}
	if page.NextCursor != "next-1" {
		t.Errorf("NextCursor = %q, want %q", page.NextCursor, "next-1")
	}
	if !page.HasMore {
		t.Error("HasMore = false, want true")
	}
	if page.Total != 3 {
		t.Errorf("Total = %d, want 3", page.Total)
	}
}

func TestRecordFetcher_FetchPage_WithCursor(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page_token"); got != "next-1" {
			t.Errorf("page_token = %q, want %q", got, "next-1")
		}
		if got := r.URL.Query().Get("page_size"); got != "2" {
			t.Errorf("page_size = %q, want 2", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"code": 0, "data": {"has_more": false, "items": [{"record_id": "rec3", "fields": {}}]}}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	f := NewRecordFetcher(server.URL, 2, 0)

	page, err := f.FetchPage(context.Background(), "t-abc", testLocator, "next-1")
	if err != nil {
		t.Fatalf("FetchPage() returned unexpected error: %v", err)
	}
	if page.HasMore {
		t.Error("HasMore = true, want false")
	}
	if page.NextCursor != "" {
		t.Errorf("NextCursor = %q, want empty", page.NextCursor)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "rec3" {
		t.Errorf("Items = %+v, want single rec3", page.Items)
	}
}

func TestRecordFetcher_FetchPage_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType fetcher.ErrorType
	}{
		{
			name:     "non-zero code",
			status:   http.StatusOK,
			body:     `{"code": 91402, "msg": "NOTEXIST"}`,
			wantType: fetcher.ErrorTypeAPI,
		},
		{
			name:     "missing data",
			status:   http.StatusOK,
			body:     `{"code": 0, "msg": "success"}`,
			wantType: fetcher.ErrorTypeValidation,
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{}`,
			wantType: fetcher.ErrorTypeRateLimit,
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"code": 1254001, "msg": "WrongRequestBody"}`,
			wantType: fetcher.ErrorTypeClient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			f := NewRecordFetcher(server.URL, 0, 0)

			page, err := f.FetchPage(context.Background(), "t-abc", testLocator, "")
			if err == nil {
				t.Fatalf("FetchPage() = %+v, want error", page)
			}
			if page != nil {
				t.Errorf("FetchPage() page = %+v, want nil", page)
			}

			var fetchErr *fetcher.FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("FetchPage() error = %v, want *fetcher.FetchError", err)
			}
			if fetchErr.Type != tt.wantType {
				t.Errorf("error type = %q, want %q", fetchErr.Type, tt.wantType)
			}
		})
	}
}

func TestRecordFetcher_FetchPage_ContextCancellation(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	f := NewRecordFetcher(server.URL, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.FetchPage(ctx, "t-abc", testLocator, ""); err == nil {
		t.Error("FetchPage() expected error for cancelled context, got nil")
	}
}

func TestRecordFetcher_Paginated(t *testing.T) {
	pages := map[string]string{
		"":   `{"code":0,"data":{"has_more":true,"page_token":"p2","items":[{"record_id":"a","fields":{}},{"record_id":"b","fields":{}}]}}`,
		"p2": `{"code":0,"data":{"has_more":true,"page_token":"p3","items":[{"record_id":"c","fields":{}}]}}`,
		"p3": `{"code":0,"data":{"has_more":false,"items":[{"record_id":"d","fields":{}}]}}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Query().Get("page_token")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	defer server.Close()

	res := fetcher.NewPaginator(NewRecordFetcher(server.URL, 0, 0)).
		All(context.Background(), "t-abc", testLocator)

	if res.Truncated() {
		t.Fatalf("Truncated() = true, err: %v", res.Err)
	}

	var got []string
	for _, r := range res.Records {
		got = append(got, r.ID)
	}
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("Records = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Records[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
