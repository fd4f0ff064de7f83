// Package store provides the memory storage boundary and its SQLite
// implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/memory-engine/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store is everything the memory service needs from durable storage.
//
// Workspace scoping: an empty workspace addresses global memories only; a
// non-empty workspace addresses that workspace plus global memories.
type Store interface {
	// InsertMemoryChunk persists one chunk. Each call commits independently.
	InsertMemoryChunk(ctx context.Context, c model.MemoryChunk) error

	// SearchMemories runs a keyword (BM25) search.
	SearchMemories(ctx context.Context, query, workspace string, limit int) ([]model.MemoryChunk, error)

	// GetMemoriesByWorkspace lists chunks by importance, then recency.
	GetMemoriesByWorkspace(ctx context.Context, workspace string, limit int) ([]model.MemoryChunk, error)

	// TouchMemory records an access.
	TouchMemory(ctx context.Context, id string) error

	// GetMemoryCount counts chunks. A nil workspace counts everything, ""
	// counts global chunks and any other value counts that workspace only.
	GetMemoryCount(ctx context.Context, workspace *string) (int, error)

	// GetMemoryTimeRange returns the oldest and newest creation times under
	// the same workspace rules as GetMemoryCount. Both are nil when empty.
	GetMemoryTimeRange(ctx context.Context, workspace *string) (oldest, newest *time.Time, err error)

	// GetUserProfile returns all profile entries in insertion order.
	GetUserProfile(ctx context.Context) ([]model.UserProfileEntry, error)

	// GetUserProfileByCategory returns one category's entries.
	GetUserProfileByCategory(ctx context.Context, category string) ([]model.UserProfileEntry, error)

	// UpsertUserProfile inserts or replaces an entry by ID.
	UpsertUserProfile(ctx context.Context, e model.UserProfileEntry) error
}

// ConversationSource provides the transcripts session extraction reads.
type ConversationSource interface {
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)

	// GetRecentMessages returns the newest limit messages, oldest first.
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)
}

// Scope returns a workspace pointer for GetMemoryCount and GetMemoryTimeRange.
func Scope(workspace string) *string {
	return &workspace
}
