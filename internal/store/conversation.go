package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/memory-engine/internal/model"
)

// UpsertConversation creates a conversation or updates its name and workspace.
func (s *SQLiteStore) UpsertConversation(ctx context.Context, c model.Conversation) error {
	if c.ID == "" {
		return fmt.Errorf("upsert conversation: empty id")
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, name, workspace, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, workspace = excluded.workspace`,
		c.ID, c.Name, nullString(c.Workspace), createdAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert conversation: %w", err)
	}
	return nil
}

// GetConversation returns a conversation by ID or ErrNotFound.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	var workspace sql.NullString
	var createdAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, workspace, created_at FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &workspace, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	c.Workspace = workspace.String
	c.CreatedAt = time.UnixMilli(createdAt)
	return &c, nil
}

// AddMessage appends a message, filling in ID, type and timestamp when unset.
// The conversation must already exist.
func (s *SQLiteStore) AddMessage(ctx context.Context, m model.Message) (model.Message, error) {
	if m.ID == "" {
		m.ID = NewID()
	}
	if m.Type == "" {
		m.Type = model.MessageTypeText
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}

	if _, err := s.GetConversation(ctx, m.ConversationID); err != nil {
		return m, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, position, type, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.Position, m.Type, m.Content, m.CreatedAt.UnixMilli())
	if err != nil {
		return m, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

// GetRecentMessages returns the newest limit messages in chronological order.
func (s *SQLiteStore) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, position, type, content, created_at FROM (
			SELECT rowid AS rid, id, conversation_id, position, type, content, created_at
			FROM messages WHERE conversation_id = ?
			ORDER BY created_at DESC, rid DESC
			LIMIT ?
		) ORDER BY created_at ASC, rid ASC`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Position, &m.Type, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt = time.UnixMilli(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
