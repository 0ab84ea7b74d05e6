package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitableqa/internal/record"
)

func emptyTable() *record.Table {
	return record.NewTable(record.DefaultFieldMap(), nil)
}

func TestNewAgent_Defaults(t *testing.T) {
	a, err := NewAgent(context.Background(), Options{APIKey: "test-key"}, emptyTable())
	if err != nil {
		t.Fatalf("NewAgent() returned unexpected error: %v", err)
	}
	if a.model != DefaultModel {
		t.Errorf("model = %q, want %q", a.model, DefaultModel)
	}
	if a.client == nil {
		t.Error("client is nil")
	}
}

func TestAgent_Ask_Success(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gemini-test:generateContent") {
			t.Errorf("path = %s, want generateContent for gemini-test", r.URL.Path)
		}

		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "本月餐饮") {
			t.Errorf("request body does not contain the question: %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"candidates": [{
				"content": {
					"role": "model",
					"parts": [{"text": "{\"steps\": [\"filter 餐饮\"], \"final_answer\": \"0 元\"}"}]
				},
				"finishReason": "STOP"
			}]
		}`))
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	a, err := NewAgent(context.Background(), Options{
		APIKey:  "test-key",
		Model:   "gemini-test",
		BaseURL: server.URL,
	}, emptyTable())
	if err != nil {
		t.Fatalf("NewAgent() returned unexpected error: %v", err)
	}

	resp, err := a.Ask(context.Background(), "本月餐饮花了多少？")
	if err != nil {
		t.Fatalf("Ask() returned unexpected error: %v", err)
	}

	if resp.Answer != "0 元" {
		t.Errorf("Answer = %q, want %q", resp.Answer, "0 元")
	}
	if len(resp.Steps) != 1 || resp.Steps[0] != "filter 餐饮" {
		t.Errorf("Steps = %v, want [filter 餐饮]", resp.Steps)
	}
}

func TestAgent_Ask_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"code": 400, "message": "API key not valid", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	a, err := NewAgent(context.Background(), Options{APIKey: "bad", BaseURL: server.URL}, emptyTable())
	if err != nil {
		t.Fatalf("NewAgent() returned unexpected error: %v", err)
	}

	if _, err := a.Ask(context.Background(), "q"); err == nil {
		t.Error("Ask() expected error, got nil")
	}
}
