// Package chat answers user questions over the indexed course materials,
// threading conversation history through sessions and attributing answers
// to the lessons they came from.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"courserag/internal/tools"
)

type Generator interface {
	GenerateResponse(ctx context.Context, query, history string, executor tools.Executor) (string, error)
}

type SessionStore interface {
	Create(ctx context.Context) (string, error)
	Ensure(ctx context.Context, id string) error
	History(ctx context.Context, id string) (string, error)
	AddExchange(ctx context.Context, id, question, answer string) error
}

type Service struct {
	generator Generator
	sessions  SessionStore
	newTools  func() *tools.Manager
}

// NewService takes a tool-manager factory so each request gets its own
// source tracking; the manager is stateful within one exchange.
func NewService(generator Generator, sessions SessionStore, newTools func() *tools.Manager) *Service {
	return &Service{generator: generator, sessions: sessions, newTools: newTools}
}

// Query runs one question through the generator with the search tools
// available, persists the exchange, and returns the answer with its sources.
// A blank sessionID starts a new session; an unknown one is created as-is.
func (s *Service) Query(ctx context.Context, query, sessionID string) (string, []tools.Source, string, error) {
	var err error
	if sessionID == "" {
		sessionID, err = s.sessions.Create(ctx)
		if err != nil {
			return "", nil, "", fmt.Errorf("start session: %w", err)
		}
	} else if err := s.sessions.Ensure(ctx, sessionID); err != nil {
		return "", nil, "", fmt.Errorf("ensure session: %w", err)
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return "", nil, "", err
	}

	manager := s.newTools()
	answer, err := s.generator.GenerateResponse(ctx, query, history, manager)
	if err != nil {
		return "", nil, "", fmt.Errorf("generate answer: %w", err)
	}

	sources := manager.LastSources()
	manager.ResetSources()

	// The answer already exists; a history write failure must not lose it.
	if err := s.sessions.AddExchange(ctx, sessionID, query, answer); err != nil {
		slog.WarnContext(ctx, "failed to persist exchange", "session_id", sessionID, "error", err)
	}

	return answer, sources, sessionID, nil
}
