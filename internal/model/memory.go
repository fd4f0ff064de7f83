// Package model defines the core memory data types.
package model

import "time"

// MemoryType classifies a stored chunk. The set is open; callers may use
// their own values.
type MemoryType string

const (
	TypeFact           MemoryType = "fact"
	TypeDecision       MemoryType = "decision"
	TypeLesson         MemoryType = "lesson"
	TypeSessionSummary MemoryType = "session_summary"
	TypeCorrection     MemoryType = "correction"
)

// Source records who produced a memory.
type Source string

const (
	SourceUser Source = "user"
	SourceAuto Source = "auto"
)

// Default importance per memory category, 0-9.
const (
	ImportanceDefault        = 5
	ImportanceSessionSummary = 6
	ImportanceDecision       = 7
	ImportanceUserFact       = 8
	ImportanceLesson         = 8
	ImportanceCorrection     = 9
	MaxImportance            = 9
)

// MemoryChunk is the atomic unit of stored memory. Content is always
// sanitized before it reaches a store.
type MemoryChunk struct {
	ID             string     `json:"id"`
	Workspace      string     `json:"workspace,omitempty"` // empty means global
	ConversationID string     `json:"conversation_id,omitempty"`
	Type           MemoryType `json:"type"`
	Source         Source     `json:"source"`
	Content        string     `json:"content"`
	Tags           []string   `json:"tags,omitempty"`
	Importance     int        `json:"importance"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// UserProfileEntry is a learned user preference. ID is derived from
// Category and Key so repeated learning overwrites.
type UserProfileEntry struct {
	ID         string    `json:"id"`
	Category   string    `json:"category"`
	Key        string    `json:"key"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Preference is a (category, key, value) triple produced by extraction.
type Preference struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Value    string `json:"value"`
}

// StructuredExtraction is what the extraction function distills from a
// transcript. It is never persisted directly.
type StructuredExtraction struct {
	Summary     string       `json:"summary"`
	Decisions   []string     `json:"decisions"`
	Lessons     []string     `json:"lessons"`
	Preferences []Preference `json:"preferences"`
	Tags        []string     `json:"tags"`
}
