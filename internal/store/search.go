package store

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rcliao/memory-engine/internal/model"
)

// SearchMemories finds chunks matching any query term, ranked by BM25 and
// boosted by importance.
func (s *SQLiteStore) SearchMemories(ctx context.Context, query, workspace string, limit int) ([]model.MemoryChunk, error) {
	if limit <= 0 {
		return nil, nil
	}
	match := matchExpression(query)
	if match == "" {
		return nil, nil
	}

	scope, scopeArgs := readScope(workspace)
	args := append([]interface{}{match}, scopeArgs...)
	args = append(args, limit)

	// bm25() is negative with lower meaning better, so scaling it by an
	// importance factor > 1 pushes important chunks up.
	q := fmt.Sprintf(`
		SELECT %s
		FROM memory_chunks_fts
		JOIN memory_chunks m ON m.rowid = memory_chunks_fts.rowid
		WHERE memory_chunks_fts MATCH ? AND %s
		ORDER BY bm25(memory_chunks_fts) * (1.0 + m.importance / 10.0), m.created_at DESC
		LIMIT ?`, chunkColumns, scope)

	chunks, err := queryChunks(ctx, s.db, q, args...)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	return chunks, nil
}

// GetMemoriesByWorkspace lists chunks by importance, newest first within
// the same importance.
func (s *SQLiteStore) GetMemoriesByWorkspace(ctx context.Context, workspace string, limit int) ([]model.MemoryChunk, error) {
	if limit <= 0 {
		return nil, nil
	}
	scope, args := readScope(workspace)
	args = append(args, limit)

	q := fmt.Sprintf(`
		SELECT %s
		FROM memory_chunks m
		WHERE %s
		ORDER BY m.importance DESC, m.created_at DESC, m.rowid DESC
		LIMIT ?`, chunkColumns, scope)

	chunks, err := queryChunks(ctx, s.db, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	return chunks, nil
}

// matchExpression turns free text into an FTS5 query: every term is quoted
// so punctuation cannot be read as query syntax, and terms are OR-ed.
func matchExpression(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(terms))
	seen := map[string]bool{}
	for _, t := range terms {
		t = strings.ToLower(t)
		if seen[t] {
			continue
		}
		seen[t] = true
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " OR ")
}
