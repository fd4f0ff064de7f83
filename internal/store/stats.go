package store

import (
	"context"
	"os"
)

// Info holds database-level statistics.
type Info struct {
	DBPath        string           `json:"db_path"`
	DBSizeBytes   int64            `json:"db_size_bytes"`
	TotalChunks   int              `json:"total_chunks"`
	ProfileCount  int              `json:"profile_entries"`
	Conversations int              `json:"conversations"`
	Messages      int              `json:"messages"`
	Workspaces    []WorkspaceStats `json:"workspaces"`
}

// WorkspaceStats holds per-workspace counts. The global tier is reported
// with an empty workspace.
type WorkspaceStats struct {
	Workspace string `json:"workspace"`
	Count     int    `json:"count"`
}

// Info returns database statistics.
func (s *SQLiteStore) Info(ctx context.Context, dbPath string) (*Info, error) {
	info := &Info{DBPath: dbPath}

	if fi, err := os.Stat(dbPath); err == nil {
		info.DBSizeBytes = fi.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_chunks`).Scan(&info.TotalChunks)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_profile`).Scan(&info.ProfileCount)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&info.Conversations)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&info.Messages)

	ws, err := s.ListWorkspaces(ctx)
	if err != nil {
		return info, err
	}
	info.Workspaces = ws
	return info, nil
}

// ListWorkspaces returns chunk counts per workspace, largest first.
func (s *SQLiteStore) ListWorkspaces(ctx context.Context) ([]WorkspaceStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(workspace, ''), COUNT(*) AS cnt
		FROM memory_chunks
		GROUP BY workspace ORDER BY cnt DESC, workspace`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorkspaceStats
	for rows.Next() {
		var w WorkspaceStats
		if err := rows.Scan(&w.Workspace, &w.Count); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
