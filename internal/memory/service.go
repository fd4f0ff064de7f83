// Package memory turns conversation text into durable, retrievable memory
// chunks and assembles them back into prompt context.
//
// Every write path sanitizes text through the redaction filter before it
// reaches the store. Store failures never surface to callers: a failed
// insert drops that chunk's id from the result and a failed read counts as
// an empty result for that source.
package memory

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rcliao/memory-engine/internal/budget"
	"github.com/rcliao/memory-engine/internal/chunker"
	"github.com/rcliao/memory-engine/internal/model"
	"github.com/rcliao/memory-engine/internal/redact"
	"github.com/rcliao/memory-engine/internal/store"
)

const (
	DefaultRecallLimit          = 20
	DefaultContextLimit         = 15
	DefaultProfileLimit         = 10
	DefaultProfileMinConfidence = 0.3
	DefaultConfidence           = 0.5

	// keywordPercent of recall slots go to keyword search, rounded up.
	keywordPercent = 70

	TagSessionSummary = "session-summary"
	TagCorrection     = "correction"
	TagPreference     = "preference"
)

// Options tunes a Service. Zero values take defaults.
type Options struct {
	Now    func() time.Time
	NewID  func() string
	Filter *redact.Filter
	Logger *zerolog.Logger

	MaxChunkChars        int
	ProfileMinConfidence float64
	ProfileLimit         int
	ContextLimit         int
	Budget               budget.Config
}

// Service orchestrates redaction, chunking, storage and retrieval. It holds
// no mutable state of its own.
type Service struct {
	store  store.Store
	opts   Options
	filter *redact.Filter
	log    zerolog.Logger
}

// New returns a Service backed by st.
func New(st store.Store, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = store.NewID
	}
	if opts.Filter == nil {
		opts.Filter = redact.New(redact.DefaultRules...)
	}
	if opts.MaxChunkChars <= 0 {
		opts.MaxChunkChars = chunker.DefaultMaxChars
	}
	if opts.ProfileMinConfidence <= 0 {
		opts.ProfileMinConfidence = DefaultProfileMinConfidence
	}
	if opts.ProfileLimit <= 0 {
		opts.ProfileLimit = DefaultProfileLimit
	}
	if opts.ContextLimit <= 0 {
		opts.ContextLimit = DefaultContextLimit
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Service{
		store:  st,
		opts:   opts,
		filter: opts.Filter,
		log:    logger.With().Str("component", "memory").Logger(),
	}
}

// StoreParams describes a memory to persist.
type StoreParams struct {
	Content        string
	Type           model.MemoryType
	Workspace      string
	ConversationID string
	Source         model.Source
	Tags           []string
	Importance     int // 0 takes ImportanceDefault
}

// StoreMemory sanitizes and chunks p.Content and inserts each chunk
// independently. It returns the ids of the chunks that were stored.
func (s *Service) StoreMemory(ctx context.Context, p StoreParams) []string {
	content := s.filter.Sanitize(p.Content)
	if strings.TrimSpace(content) == "" {
		return nil
	}

	typ := p.Type
	if typ == "" {
		typ = model.TypeFact
	}
	source := p.Source
	if source == "" {
		source = model.SourceAuto
	}
	importance := p.Importance
	if importance <= 0 {
		importance = model.ImportanceDefault
	}
	if importance > model.MaxImportance {
		importance = model.MaxImportance
	}

	var tags []string
	for _, t := range p.Tags {
		if t = strings.TrimSpace(s.filter.Sanitize(t)); t != "" {
			tags = append(tags, t)
		}
	}

	now := s.opts.Now()
	var ids []string
	for _, piece := range chunker.Chunk(content, s.opts.MaxChunkChars) {
		c := model.MemoryChunk{
			ID:             s.opts.NewID(),
			Workspace:      p.Workspace,
			ConversationID: p.ConversationID,
			Type:           typ,
			Source:         source,
			Content:        piece,
			Tags:           tags,
			Importance:     importance,
			CreatedAt:      now,
		}
		if err := s.store.InsertMemoryChunk(ctx, c); err != nil {
			s.log.Warn().Err(err).Str("id", c.ID).Str("workspace", p.Workspace).Msg("insert chunk failed")
			continue
		}
		ids = append(ids, c.ID)
	}
	return ids
}

// SummaryParams describes a session summary.
type SummaryParams struct {
	Summary        string
	Workspace      string
	ConversationID string
	Tags           []string // defaults to [session-summary]
}

// StoreSessionSummary stores an automatically produced session summary.
func (s *Service) StoreSessionSummary(ctx context.Context, p SummaryParams) []string {
	tags := p.Tags
	if len(tags) == 0 {
		tags = []string{TagSessionSummary}
	}
	return s.StoreMemory(ctx, StoreParams{
		Content:        p.Summary,
		Type:           model.TypeSessionSummary,
		Workspace:      p.Workspace,
		ConversationID: p.ConversationID,
		Source:         model.SourceAuto,
		Tags:           tags,
		Importance:     model.ImportanceSessionSummary,
	})
}

// CorrectionParams describes a user correction.
type CorrectionParams struct {
	Content        string
	Workspace      string
	ConversationID string
}

// StoreCorrection stores a user correction at the highest importance.
func (s *Service) StoreCorrection(ctx context.Context, p CorrectionParams) []string {
	return s.StoreMemory(ctx, StoreParams{
		Content:        p.Content,
		Type:           model.TypeCorrection,
		Workspace:      p.Workspace,
		ConversationID: p.ConversationID,
		Source:         model.SourceUser,
		Tags:           []string{TagCorrection, TagPreference},
		Importance:     model.ImportanceCorrection,
	})
}
