package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rcliao/memory-engine/internal/model"
	"github.com/rcliao/memory-engine/internal/redact"
)

// ExportChunks returns stored chunks oldest first. An empty workspace
// exports everything.
func (s *SQLiteStore) ExportChunks(ctx context.Context, workspace string) ([]model.MemoryChunk, error) {
	where := "1 = 1"
	var args []interface{}
	if workspace != "" {
		where = "m.workspace = ?"
		args = append(args, workspace)
	}

	chunks, err := queryChunks(ctx, s.db,
		`SELECT `+chunkColumns+` FROM memory_chunks m WHERE `+where+` ORDER BY m.created_at, m.rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("export chunks: %w", err)
	}
	return chunks, nil
}

// ImportChunks restores exported chunks with their ids and timestamps.
// Content and tags are redacted again on the way in. Chunks whose id already
// exists are skipped, so importing the same export twice is a no-op. It
// returns the number of chunks inserted.
func (s *SQLiteStore) ImportChunks(ctx context.Context, chunks []model.MemoryChunk) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import chunks: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO memory_chunks (id, workspace, conversation_id, type, source, content, tags, importance, created_at, last_accessed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("import chunks: %w", err)
	}
	defer stmt.Close()

	imported := 0
	for _, c := range chunks {
		content := redact.Sanitize(c.Content)
		if strings.TrimSpace(content) == "" {
			continue
		}
		id := c.ID
		if id == "" {
			id = NewID()
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = s.now()
		}
		var tags []string
		for _, t := range c.Tags {
			tags = append(tags, redact.Sanitize(t))
		}
		if c.Type == "" {
			c.Type = model.TypeFact
		}
		if c.Source == "" {
			c.Source = model.SourceAuto
		}

		res, err := stmt.ExecContext(ctx,
			id, nullString(c.Workspace), nullString(c.ConversationID), string(c.Type), string(c.Source),
			content, tagsJSON(tags), c.Importance, createdAt.UnixMilli(), nullTime(c.LastAccessedAt))
		if err != nil {
			return 0, fmt.Errorf("import chunk %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			imported++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import chunks: %w", err)
	}
	return imported, nil
}
