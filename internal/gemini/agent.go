package gemini

import (
	"context"
	"fmt"

	"bitableqa/internal/agent"
	"bitableqa/internal/logger"
	"bitableqa/internal/ratelimit"
	"bitableqa/internal/record"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.0-flash"

// Options configures the Gemini client
type Options struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint (empty = default)
	BaseURL string
}

// Agent answers questions about a table through Gemini
type Agent struct {
	model  string
	system string
	client *genai.Client
}

// NewAgent creates an agent bound to table
func NewAgent(ctx context.Context, opts Options, table *record.Table) (*Agent, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}

	system, err := agent.SystemPrompt(table)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: opts.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Agent{
		model:  opts.Model,
		system: system,
		client: client,
	}, nil
}

// NewFactory returns an agent.Factory producing Gemini agents
func NewFactory(opts Options) agent.Factory {
	return func(ctx context.Context, table *record.Table) (agent.Agent, error) {
		a, err := NewAgent(ctx, opts, table)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

// Ask sends the question with the table context and parses the reply
func (a *Agent) Ask(ctx context.Context, question string) (*agent.Response, error) {
	log := logger.FromContext(ctx)

	if err := ratelimit.GetLimiter().Wait(ctx, ratelimit.APIGemini); err != nil {
		return nil, err
	}

	temperature := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature: &temperature,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: a.system}},
		},
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: agent.UserPrompt(question)}},
		},
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("empty response from %s", a.model)
	}

	log.Debug().Str("model", a.model).Int("chars", len(text)).Msg("gemini answered")

	return agent.ParseResponse(text), nil
}
