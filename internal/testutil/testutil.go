package testutil

import (
	"context"
	"fmt"

	"bitableqa/internal/agent"
	"bitableqa/internal/fetcher"
	"bitableqa/internal/record"
)

// MockTokenProvider is a mock implementation of fetcher.TokenProvider
type MockTokenProvider struct {
	TokenFunc func(ctx context.Context) (fetcher.Credential, error)
	Calls     int
}

// Token implements fetcher.TokenProvider
func (m *MockTokenProvider) Token(ctx context.Context) (fetcher.Credential, error) {
	m.Calls++
	if m.TokenFunc != nil {
		return m.TokenFunc(ctx)
	}
	return "mock-token", nil
}

// NewMockTokenProvider creates a token provider returning fixed values
func NewMockTokenProvider(cred fetcher.Credential, err error) *MockTokenProvider {
	return &MockTokenProvider{
		TokenFunc: func(ctx context.Context) (fetcher.Credential, error) {
			return cred, err
		},
	}
}

// MockPageFetcher serves Pages in order. When FailAt is set (1-based), that
// call returns Err instead of a page.
type MockPageFetcher struct {
	Pages   []*fetcher.Page
	FailAt  int
	Err     error
	Cursors []string
}

// FetchPage implements fetcher.PageFetcher
func (m *MockPageFetcher) FetchPage(ctx context.Context, cred fetcher.Credential, loc fetcher.Locator, cursor string) (*fetcher.Page, error) {
	m.Cursors = append(m.Cursors, cursor)
	call := len(m.Cursors)

	if call == m.FailAt {
		if m.Err != nil {
			return nil, m.Err
		}
		return nil, fetcher.NewServerError(500)
	}
	if call > len(m.Pages) {
		return nil, fmt.Errorf("mock: no page %d", call)
	}
	return m.Pages[call-1], nil
}

// Calls returns how many pages were requested
func (m *MockPageFetcher) Calls() int {
	return len(m.Cursors)
}

// Records builds raw records with the given ids and fields
func Records(fields map[string]any, ids ...string) []record.RawRecord {
	out := make([]record.RawRecord, 0, len(ids))
	for _, id := range ids {
		f := make(map[string]any, len(fields))
		for k, v := range fields {
			f[k] = v
		}
		out = append(out, record.RawRecord{ID: id, Fields: f})
	}
	return out
}

// MockAgent is a mock implementation of agent.Agent
type MockAgent struct {
	AskFunc   func(ctx context.Context, question string) (*agent.Response, error)
	Questions []string
}

// Ask implements agent.Agent
func (m *MockAgent) Ask(ctx context.Context, question string) (*agent.Response, error) {
	m.Questions = append(m.Questions, question)
	if m.AskFunc != nil {
		return m.AskFunc(ctx, question)
	}
	return &agent.Response{Answer: "mock answer to " + question}, nil
}
