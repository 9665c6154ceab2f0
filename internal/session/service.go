package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Repository interface {
	CreateSession(ctx context.Context, id string) error
	SessionExists(ctx context.Context, id string) (bool, error)
	AddMessage(ctx context.Context, sessionID, role, content string) error
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
}

type Service struct {
	repo     Repository
	maxTurns int
}

// NewService caps history at maxTurns question/answer exchanges.
func NewService(repo Repository, maxTurns int) *Service {
	if maxTurns <= 0 {
		maxTurns = 2
	}
	return &Service{repo: repo, maxTurns: maxTurns}
}

func (s *Service) Create(ctx context.Context) (string, error) {
	id := uuid.New().String()
	if err := s.repo.CreateSession(ctx, id); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

// Ensure creates the session row when the caller supplies an id the store
// has not seen, so clients may mint their own session ids.
func (s *Service) Ensure(ctx context.Context, id string) error {
	exists, err := s.repo.SessionExists(ctx, id)
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.repo.CreateSession(ctx, id); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// AddExchange stores one question/answer pair.
func (s *Service) AddExchange(ctx context.Context, id, question, answer string) error {
	if err := s.repo.AddMessage(ctx, id, "user", question); err != nil {
		return fmt.Errorf("store question: %w", err)
	}
	if err := s.repo.AddMessage(ctx, id, "assistant", answer); err != nil {
		return fmt.Errorf("store answer: %w", err)
	}
	return nil
}

// History renders the recent exchanges as "User: ...\nAssistant: ..." lines
// for the generator's system instruction. Empty when the session is new.
func (s *Service) History(ctx context.Context, id string) (string, error) {
	messages, err := s.repo.RecentMessages(ctx, id, s.maxTurns*2)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		role := "User"
		if m.Role == "assistant" {
			role = "Assistant"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, m.Content))
	}
	return strings.Join(lines, "\n"), nil
}
