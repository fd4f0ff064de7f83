package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/rcliao/memory-engine/internal/model"
)

const profileCacheSize = 64

// SQLiteStore implements Store and ConversationSource using SQLite with an
// FTS5 index over chunk content.
type SQLiteStore struct {
	db           *sql.DB
	now          func() time.Time
	profileCache *lru.Cache[string, []model.UserProfileEntry]
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewID returns a new ULID string. Safe for concurrent use.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	cache, err := lru.New[string, []model.UserProfileEntry](profileCacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("profile cache: %w", err)
	}

	s := &SQLiteStore{
		db:           db,
		now:          time.Now,
		profileCache: cache,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("memory store opened")
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memory_chunks (
		id               TEXT PRIMARY KEY,
		workspace        TEXT,
		conversation_id  TEXT,
		type             TEXT NOT NULL,
		source           TEXT NOT NULL DEFAULT 'auto',
		content          TEXT NOT NULL,
		tags             TEXT,
		importance       INTEGER NOT NULL DEFAULT 5,
		created_at       INTEGER NOT NULL,
		last_accessed_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_workspace ON memory_chunks(workspace);
	CREATE INDEX IF NOT EXISTS idx_chunks_rank ON memory_chunks(importance DESC, created_at DESC);

	CREATE VIRTUAL TABLE IF NOT EXISTS memory_chunks_fts USING fts5(
		content,
		tags,
		content=memory_chunks,
		content_rowid=rowid,
		tokenize='porter unicode61'
	);

	CREATE TABLE IF NOT EXISTS user_profile (
		id         TEXT PRIMARY KEY,
		category   TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 0.5,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_profile_category ON user_profile(category);

	CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		workspace  TEXT,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id              TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		position        TEXT NOT NULL,
		type            TEXT NOT NULL DEFAULT 'text',
		content         TEXT NOT NULL,
		created_at      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers for automatic sync. Touching a chunk does not reindex it.
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS memory_chunks_ai AFTER INSERT ON memory_chunks BEGIN
			INSERT INTO memory_chunks_fts(rowid, content, tags) VALUES (new.rowid, new.content, new.tags);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memory_chunks_ad AFTER DELETE ON memory_chunks BEGIN
			INSERT INTO memory_chunks_fts(memory_chunks_fts, rowid, content, tags) VALUES('delete', old.rowid, old.content, old.tags);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memory_chunks_au AFTER UPDATE OF content, tags ON memory_chunks BEGIN
			INSERT INTO memory_chunks_fts(memory_chunks_fts, rowid, content, tags) VALUES('delete', old.rowid, old.content, old.tags);
			INSERT INTO memory_chunks_fts(rowid, content, tags) VALUES (new.rowid, new.content, new.tags);
		END`,
	}
	for _, stmt := range triggers {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create trigger: %w", err)
		}
	}

	return nil
}

// InsertMemoryChunk persists one chunk.
func (s *SQLiteStore) InsertMemoryChunk(ctx context.Context, c model.MemoryChunk) error {
	if c.ID == "" {
		return fmt.Errorf("insert chunk: empty id")
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_chunks (id, workspace, conversation_id, type, source, content, tags, importance, created_at, last_accessed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullString(c.Workspace), nullString(c.ConversationID), string(c.Type), string(c.Source),
		c.Content, tagsJSON(c.Tags), c.Importance, createdAt.UnixMilli(), nullTime(c.LastAccessedAt))
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

// TouchMemory records an access on a chunk.
func (s *SQLiteStore) TouchMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE memory_chunks SET last_accessed_at = ? WHERE id = ?`, s.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("touch chunk: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("touch chunk %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetMemoryCount counts chunks; see Store.
func (s *SQLiteStore) GetMemoryCount(ctx context.Context, workspace *string) (int, error) {
	where, args := countScope(workspace)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_chunks WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// GetMemoryTimeRange returns min/max creation times; see Store.
func (s *SQLiteStore) GetMemoryTimeRange(ctx context.Context, workspace *string) (*time.Time, *time.Time, error) {
	where, args := countScope(workspace)
	var oldest, newest sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MIN(created_at), MAX(created_at) FROM memory_chunks WHERE `+where, args...).Scan(&oldest, &newest)
	if err != nil {
		return nil, nil, fmt.Errorf("chunk time range: %w", err)
	}
	return fromMillis(oldest), fromMillis(newest), nil
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const chunkColumns = `m.id, m.workspace, m.conversation_id, m.type, m.source, m.content, m.tags,
	m.importance, m.created_at, m.last_accessed_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanChunk(row scanner) (model.MemoryChunk, error) {
	var c model.MemoryChunk
	var workspace, conversationID, tags sql.NullString
	var typ, source string
	var createdAt int64
	var lastAccessed sql.NullInt64

	err := row.Scan(&c.ID, &workspace, &conversationID, &typ, &source, &c.Content, &tags,
		&c.Importance, &createdAt, &lastAccessed)
	if err != nil {
		return c, err
	}

	c.Workspace = workspace.String
	c.ConversationID = conversationID.String
	c.Type = model.MemoryType(typ)
	c.Source = model.Source(source)
	c.CreatedAt = time.UnixMilli(createdAt)
	c.LastAccessedAt = fromMillis(lastAccessed)
	if tags.Valid {
		json.Unmarshal([]byte(tags.String), &c.Tags)
	}
	return c, nil
}

func queryChunks(ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]model.MemoryChunk, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []model.MemoryChunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// readScope builds the workspace clause for reads: global rows always,
// plus the named workspace when one is given.
func readScope(workspace string) (string, []interface{}) {
	if workspace == "" {
		return "m.workspace IS NULL", nil
	}
	return "(m.workspace = ? OR m.workspace IS NULL)", []interface{}{workspace}
}

func countScope(workspace *string) (string, []interface{}) {
	switch {
	case workspace == nil:
		return "1 = 1", nil
	case *workspace == "":
		return "workspace IS NULL", nil
	default:
		return "workspace = ?", []interface{}{*workspace}
	}
}

func tagsJSON(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	b, _ := json.Marshal(tags)
	s := string(b)
	return &s
}

func nullString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func nullTime(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}
