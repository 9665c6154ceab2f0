package session

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_CreateSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions (id) VALUES ($1)`)).
		WithArgs("session-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepo(db)
	err = repo.CreateSession(context.Background(), "session-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_SessionExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`)).
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewPostgresRepo(db)
	exists, err := repo.SessionExists(context.Background(), "session-1")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_AddMessage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO session_messages (session_id, role, content) VALUES ($1, $2, $3)`)).
		WithArgs("session-1", "user", "What is MCP?").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewPostgresRepo(db)
	err = repo.AddMessage(context.Background(), "session-1", "user", "What is MCP?")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_RecentMessages(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"role", "content", "created_at"}).
		AddRow("user", "What is MCP?", now.Add(-time.Minute)).
		AddRow("assistant", "A protocol for tool access.", now)

	mock.ExpectQuery(`SELECT role, content, created_at FROM`).
		WithArgs("session-1", 4).
		WillReturnRows(rows)

	repo := NewPostgresRepo(db)
	messages, err := repo.RecentMessages(context.Background(), "session-1", 4)

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "A protocol for tool access.", messages[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
