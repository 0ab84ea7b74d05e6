package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitableqa/internal/agent"
	"bitableqa/internal/coordinator"
	"bitableqa/internal/logger"
	"bitableqa/internal/record"

	"github.com/google/uuid"
)

// ErrNoTable is returned when a question is asked before any table was loaded
var ErrNoTable = errors.New("no table loaded")

// Loader produces a table for the session
type Loader interface {
	Run(ctx context.Context) (*coordinator.Report, error)
}

// ChatEntry is one question and what the agent answered
type ChatEntry struct {
	ID       uuid.UUID
	Query    string
	Thoughts []string
	Charts   [][]byte
	Answer   string
	AskedAt  time.Time
}

// Session holds the state of one interactive session: the loaded table, the
// agent bound to it, and the chat history. A session is owned by a single
// caller and is not safe for concurrent use.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	loader   Loader
	newAgent agent.Factory

	table   *record.Table
	agent   agent.Agent
	history []ChatEntry
}

// New creates an empty session
func New(loader Loader, newAgent agent.Factory) *Session {
	return &Session{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		loader:    loader,
		newAgent:  newAgent,
	}
}

// Load fetches a fresh table. On success the previous table and its agent
// are replaced; the chat history is kept. A truncated load still replaces
// the table and is reported through the returned Report.
func (s *Session) Load(ctx context.Context) (*coordinator.Report, error) {
	report, err := s.loader.Run(ctx)
	if err != nil {
		return nil, err
	}

	s.table = report.Table
	s.agent = nil

	log := logger.FromContext(ctx)
	log.Debug().
		Str("session", s.ID.String()).
		Int("rows", report.Table.Len()).
		Msg("session table replaced")

	return report, nil
}

// Table returns the loaded table, or nil before the first successful load
func (s *Session) Table() *record.Table {
	return s.table
}

// Ask puts a question to the agent bound to the current table, building
// the agent on first use, and records the exchange in the history.
func (s *Session) Ask(ctx context.Context, query string) (*ChatEntry, error) {
	if s.table == nil {
		return nil, ErrNoTable
	}

	if s.agent == nil {
		a, err := s.newAgent(ctx, s.table)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent: %w", err)
		}
		s.agent = a
	}

	resp, err := s.agent.Ask(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("agent failed to answer: %w", err)
	}

	entry := ChatEntry{
		ID:       uuid.New(),
		Query:    query,
		Thoughts: resp.Steps,
		Charts:   resp.Charts,
		Answer:   resp.Answer,
		AskedAt:  time.Now(),
	}
	s.history = append(s.history, entry)

	return &entry, nil
}

// History returns the chat history, oldest first
func (s *Session) History() []ChatEntry {
	out := make([]ChatEntry, len(s.history))
	copy(out, s.history)
	return out
}
