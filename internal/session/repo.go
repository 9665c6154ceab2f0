// Package session keeps per-conversation history in Postgres so follow-up
// questions carry context across requests.
package session

import (
	"context"
	"database/sql"
	"time"
)

type Message struct {
	Role      string
	Content   string
	CreatedAt time.Time
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateSession(ctx context.Context, id string) error {
	query := `INSERT INTO sessions (id) VALUES ($1)`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepo) SessionExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM sessions WHERE id = $1)`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) AddMessage(ctx context.Context, sessionID, role, content string) error {
	query := `INSERT INTO session_messages (session_id, role, content) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, sessionID, role, content)
	return err
}

// RecentMessages returns the last `limit` messages in chronological order.
func (r *PostgresRepo) RecentMessages(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	query := `
		SELECT role, content, created_at FROM (
			SELECT id, role, content, created_at
			FROM session_messages
			WHERE session_id = $1
			ORDER BY id DESC
			LIMIT $2
		) recent
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
