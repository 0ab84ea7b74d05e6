package deepseek

import (
	"context"
	"fmt"

	"bitableqa/internal/agent"
	"bitableqa/internal/fetcher"
	"bitableqa/internal/logger"
	"bitableqa/internal/ratelimit"
	"bitableqa/internal/record"

	"resty.dev/v3"
)

const (
	// DefaultBaseURL is the DeepSeek API root
	DefaultBaseURL = "https://api.deepseek.com"
	// DefaultModel is the chat model used when none is configured
	DefaultModel = "deepseek-chat"

	completionsPath = "/chat/completions"
)

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents an OpenAI-compatible chat completions request
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

// ChatResponse represents an OpenAI-compatible chat completions response
type ChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index        int     `json:"index"`
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Agent answers questions about a table through DeepSeek chat completions
type Agent struct {
	model  string
	system string
	client *resty.Client
}

// NewAgent creates an agent bound to table. The table is rendered into the
// system prompt once, here.
func NewAgent(apiKey, model, baseURL string, table *record.Table) (*Agent, error) {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	system, err := agent.SystemPrompt(table)
	if err != nil {
		return nil, err
	}

	client := fetcher.NewHTTPClient(baseURL, 0).
		SetAuthToken(apiKey)

	return &Agent{
		model:  model,
		system: system,
		client: client,
	}, nil
}

// NewFactory returns an agent.Factory producing DeepSeek agents
func NewFactory(apiKey, model, baseURL string) agent.Factory {
	return func(ctx context.Context, table *record.Table) (agent.Agent, error) {
		a, err := NewAgent(apiKey, model, baseURL, table)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

// Ask sends the question with the table context and parses the reply
func (a *Agent) Ask(ctx context.Context, question string) (*agent.Response, error) {
	log := logger.FromContext(ctx)

	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIDeepSeek); err != nil {
		return nil, err
	}

	var result ChatResponse

	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(ChatRequest{
			Model: a.model,
			Messages: []Message{
				{Role: "system", Content: a.system},
				{Role: "user", Content: agent.UserPrompt(question)},
			},
			Temperature: 0,
		}).
		SetResult(&result).
		Post(completionsPath)

	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", a.model, fetcher.ClassifyTransportError(err))
	}

	if !resp.IsSuccess() {
		log.Error().
			Int("status_code", resp.StatusCode()).
			Str("body", resp.String()).
			Msg("deepseek request rejected")
		return nil, fmt.Errorf("deepseek API returned status %d: %w", resp.StatusCode(), fetcher.ClassifyHTTPError(resp.StatusCode()))
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return nil, fetcher.NewValidationError("deepseek returned no choices")
	}

	log.Debug().
		Int("prompt_tokens", result.Usage.PromptTokens).
		Int("completion_tokens", result.Usage.CompletionTokens).
		Msg("deepseek answered")

	return agent.ParseResponse(result.Choices[0].Message.Content), nil
}
