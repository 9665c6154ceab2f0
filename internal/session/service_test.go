package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	sessions map[string]bool
	messages map[string][]Message
	failAdd  bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{sessions: map[string]bool{}, messages: map[string][]Message{}}
}

func (r *memoryRepo) CreateSession(_ context.Context, id string) error {
	r.sessions[id] = true
	return nil
}

func (r *memoryRepo) SessionExists(_ context.Context, id string) (bool, error) {
	return r.sessions[id], nil
}

func (r *memoryRepo) AddMessage(_ context.Context, sessionID, role, content string) error {
	if r.failAdd {
		return errors.New("db down")
	}
	r.messages[sessionID] = append(r.messages[sessionID], Message{Role: role, Content: content})
	return nil
}

func (r *memoryRepo) RecentMessages(_ context.Context, sessionID string, limit int) ([]Message, error) {
	msgs := r.messages[sessionID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func TestService_Create(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 2)

	id, err := svc.Create(context.Background())

	require.NoError(t, err)
	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
	assert.True(t, repo.sessions[id])
}

func TestService_History(t *testing.T) {
	t.Run("formats exchanges as user and assistant lines", func(t *testing.T) {
		repo := newMemoryRepo()
		svc := NewService(repo, 2)

		require.NoError(t, svc.AddExchange(context.Background(), "s1", "What is MCP?", "A protocol."))

		history, err := svc.History(context.Background(), "s1")

		require.NoError(t, err)
		assert.Equal(t, "User: What is MCP?\nAssistant: A protocol.", history)
	})

	t.Run("keeps only the most recent turns", func(t *testing.T) {
		repo := newMemoryRepo()
		svc := NewService(repo, 2)

		for _, qa := range [][2]string{{"q1", "a1"}, {"q2", "a2"}, {"q3", "a3"}} {
			require.NoError(t, svc.AddExchange(context.Background(), "s1", qa[0], qa[1]))
		}

		history, err := svc.History(context.Background(), "s1")

		require.NoError(t, err)
		assert.NotContains(t, history, "q1")
		assert.Contains(t, history, "User: q2")
		assert.Contains(t, history, "Assistant: a3")
	})

	t.Run("new session has empty history", func(t *testing.T) {
		svc := NewService(newMemoryRepo(), 2)

		history, err := svc.History(context.Background(), "fresh")

		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestService_AddExchange_Error(t *testing.T) {
	repo := newMemoryRepo()
	repo.failAdd = true
	svc := NewService(repo, 2)

	err := svc.AddExchange(context.Background(), "s1", "q", "a")

	assert.Error(t, err)
}
