package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rcliao/memory-engine/internal/model"
)

const profileColumns = `id, category, key, value, confidence, updated_at`

// GetUserProfile returns every profile entry in insertion order.
func (s *SQLiteStore) GetUserProfile(ctx context.Context) ([]model.UserProfileEntry, error) {
	entries, err := s.queryProfile(ctx, `SELECT `+profileColumns+` FROM user_profile ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return entries, nil
}

// GetUserProfileByCategory returns one category's entries. Results are
// cached until the next upsert.
func (s *SQLiteStore) GetUserProfileByCategory(ctx context.Context, category string) ([]model.UserProfileEntry, error) {
	if cached, ok := s.profileCache.Get(category); ok {
		return cloneEntries(cached), nil
	}

	entries, err := s.queryProfile(ctx,
		`SELECT `+profileColumns+` FROM user_profile WHERE category = ? ORDER BY rowid`, category)
	if err != nil {
		return nil, fmt.Errorf("get profile category %q: %w", category, err)
	}
	s.profileCache.Add(category, cloneEntries(entries))
	return entries, nil
}

// UpsertUserProfile inserts or replaces an entry by ID, keeping its
// original insertion position.
func (s *SQLiteStore) UpsertUserProfile(ctx context.Context, e model.UserProfileEntry) error {
	if e.ID == "" {
		return fmt.Errorf("upsert profile: empty id")
	}
	updatedAt := e.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profile (id, category, key, value, confidence, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			key = excluded.key,
			value = excluded.value,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at`,
		e.ID, e.Category, e.Key, e.Value, e.Confidence, updatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	// An upsert may move an entry between categories; drop everything.
	s.profileCache.Purge()
	return nil
}

func (s *SQLiteStore) queryProfile(ctx context.Context, query string, args ...interface{}) ([]model.UserProfileEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.UserProfileEntry
	for rows.Next() {
		var e model.UserProfileEntry
		var updatedAt int64
		if err := rows.Scan(&e.ID, &e.Category, &e.Key, &e.Value, &e.Confidence, &updatedAt); err != nil {
			return nil, err
		}
		e.UpdatedAt = time.UnixMilli(updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func cloneEntries(entries []model.UserProfileEntry) []model.UserProfileEntry {
	if entries == nil {
		return nil
	}
	out := make([]model.UserProfileEntry, len(entries))
	copy(out, entries)
	return out
}
