// Package extract distills finished conversations into session summaries,
// decisions, lessons and learned preferences.
//
// Extraction is best effort. ExtractSessionMemories never returns an error
// and never panics; failures are reported through a Reporter and the caller
// only sees an Outcome.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rcliao/memory-engine/internal/memory"
	"github.com/rcliao/memory-engine/internal/model"
	"github.com/rcliao/memory-engine/internal/redact"
	"github.com/rcliao/memory-engine/internal/store"
)

const (
	DefaultTimeout       = 15 * time.Second
	DefaultMessageWindow = 50

	minMessages        = 2
	minTranscriptChars = 100
	maxMessageChars    = 500

	maxDecisions   = 5
	maxLessons     = 5
	maxPreferences = 10
	maxTags        = 5

	component = "session-extractor"
)

// Extractor turns a redacted transcript into structured memory. label names
// the conversation. A nil result with a nil error means nothing usable was
// produced.
type Extractor interface {
	Extract(ctx context.Context, transcript, label string) (*model.StructuredExtraction, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, transcript, label string) (*model.StructuredExtraction, error)

// Extract implements Extractor.
func (f ExtractorFunc) Extract(ctx context.Context, transcript, label string) (*model.StructuredExtraction, error) {
	return f(ctx, transcript, label)
}

// Reporter receives non-fatal degradation signals.
type Reporter interface {
	Degraded(component string, err error)
}

// LogReporter reports degradation as a warning. A nil Logger uses the
// global logger.
type LogReporter struct {
	Logger *zerolog.Logger
}

// Degraded implements Reporter.
func (r LogReporter) Degraded(component string, err error) {
	l := r.Logger
	if l == nil {
		l = &log.Logger
	}
	l.Warn().Str("component", component).Err(err).Msg("memory extraction degraded")
}

// Outcome describes what ExtractSessionMemories did.
type Outcome string

const (
	OutcomeSkipped   Outcome = "skipped"   // not enough conversation to summarize
	OutcomeExtracted Outcome = "extracted" // structured result stored
	OutcomeFallback  Outcome = "fallback"  // timeout or unusable result; minimal summary stored
	OutcomeDegraded  Outcome = "degraded"  // failure; nothing stored
)

// Options tunes a SessionExtractor. Zero values take defaults.
type Options struct {
	Timeout       time.Duration
	MessageWindow int
	Reporter      Reporter
	Filter        *redact.Filter
	Logger        *zerolog.Logger
}

// SessionExtractor feeds extracted session memories into a memory.Service.
type SessionExtractor struct {
	memory    *memory.Service
	source    store.ConversationSource
	extractor Extractor
	opts      Options
	log       zerolog.Logger
}

// NewSessionExtractor wires an extractor between a conversation source and
// the memory service.
func NewSessionExtractor(mem *memory.Service, src store.ConversationSource, ex Extractor, opts Options) *SessionExtractor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MessageWindow <= 0 {
		opts.MessageWindow = DefaultMessageWindow
	}
	if opts.Filter == nil {
		opts.Filter = redact.New(redact.DefaultRules...)
	}

	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Reporter == nil {
		opts.Reporter = LogReporter{Logger: &logger}
	}
	return &SessionExtractor{memory: mem, source: src, extractor: ex, opts: opts, log: logger}
}

// ExtractSessionMemories summarizes the recent window of a conversation.
func (e *SessionExtractor) ExtractSessionMemories(ctx context.Context, conversationID string) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.opts.Reporter.Degraded(component, fmt.Errorf("panic: %v", r))
			outcome = OutcomeDegraded
		}
	}()

	conv, err := e.source.GetConversation(ctx, conversationID)
	if err != nil {
		e.opts.Reporter.Degraded(component, err)
		return OutcomeDegraded
	}
	msgs, err := e.source.GetRecentMessages(ctx, conversationID, e.opts.MessageWindow)
	if err != nil {
		e.opts.Reporter.Degraded(component, fmt.Errorf("recent messages: %w", err))
		return OutcomeDegraded
	}
	if len(msgs) < minMessages {
		return OutcomeSkipped
	}

	transcript := BuildTranscript(msgs)
	if utf8.RuneCountInString(transcript) < minTranscriptChars {
		return OutcomeSkipped
	}
	transcript = e.opts.Filter.Sanitize(transcript)

	label := conv.Name
	if label == "" {
		label = conv.ID
	}

	x, err := e.extract(ctx, transcript, label)
	if err == nil && x != nil {
		err = validate(x)
	}
	switch {
	case err == nil && x == nil,
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrInvalidExtraction):
		if err != nil {
			e.log.Debug().Str("component", component).Err(err).Str("conversation", conv.ID).Msg("extraction unusable, storing fallback summary")
		}
		e.memory.StoreSessionSummary(ctx, memory.SummaryParams{
			Summary:        "Session: " + label,
			Workspace:      conv.Workspace,
			ConversationID: conv.ID,
			Tags:           []string{"auto-summary", "fallback"},
		})
		return OutcomeFallback
	case err != nil:
		e.opts.Reporter.Degraded(component, err)
		return OutcomeDegraded
	}

	e.store(ctx, conv, capExtraction(*x))
	return OutcomeExtracted
}

// extract calls the extractor under the timeout. An extractor that ignores
// its context is abandoned when the deadline passes.
func (e *SessionExtractor) extract(ctx context.Context, transcript, label string) (*model.StructuredExtraction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	type result struct {
		x   *model.StructuredExtraction
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("extractor panic: %v", r)}
			}
		}()
		x, err := e.extractor.Extract(ctx, transcript, label)
		ch <- result{x, err}
	}()

	select {
	case r := <-ch:
		return r.x, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *SessionExtractor) store(ctx context.Context, conv *model.Conversation, x model.StructuredExtraction) {
	summaryTags := append([]string{memory.TagSessionSummary}, x.Tags...)
	e.memory.StoreSessionSummary(ctx, memory.SummaryParams{
		Summary:        x.Summary,
		Workspace:      conv.Workspace,
		ConversationID: conv.ID,
		Tags:           summaryTags,
	})

	for _, d := range x.Decisions {
		e.memory.StoreMemory(ctx, memory.StoreParams{
			Content:        d,
			Type:           model.TypeDecision,
			Workspace:      conv.Workspace,
			ConversationID: conv.ID,
			Source:         model.SourceAuto,
			Tags:           append([]string{"decision"}, x.Tags...),
			Importance:     model.ImportanceDecision,
		})
	}
	for _, l := range x.Lessons {
		e.memory.StoreMemory(ctx, memory.StoreParams{
			Content:        l,
			Type:           model.TypeLesson,
			Workspace:      conv.Workspace,
			ConversationID: conv.ID,
			Source:         model.SourceAuto,
			Tags:           append([]string{"lesson"}, x.Tags...),
			Importance:     model.ImportanceLesson,
		})
	}
	for _, p := range x.Preferences {
		if strings.TrimSpace(p.Category) == "" || strings.TrimSpace(p.Key) == "" {
			continue
		}
		if err := e.memory.LearnPreference(ctx, p.Category, p.Key, p.Value, 0); err != nil {
			e.log.Warn().Str("component", component).Err(err).Str("conversation", conv.ID).Msg("learn preference failed")
		}
	}
}

// BuildTranscript renders text messages as labeled turns separated by blank
// lines. Long messages are cut to 500 characters.
func BuildTranscript(msgs []model.Message) string {
	var turns []string
	for _, m := range msgs {
		if m.Type != "" && m.Type != model.MessageTypeText {
			continue
		}
		speaker := "Assistant"
		if m.Position == model.PositionRight {
			speaker = "User"
		}
		turns = append(turns, speaker+": "+truncateRunes(m.Content, maxMessageChars))
	}
	return strings.Join(turns, "\n\n")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func validate(x *model.StructuredExtraction) error {
	if strings.TrimSpace(x.Summary) == "" {
		return fmt.Errorf("%w: empty summary", ErrInvalidExtraction)
	}
	return nil
}

func capExtraction(x model.StructuredExtraction) model.StructuredExtraction {
	x.Decisions = capSlice(x.Decisions, maxDecisions)
	x.Lessons = capSlice(x.Lessons, maxLessons)
	x.Preferences = capSlice(x.Preferences, maxPreferences)
	x.Tags = capSlice(x.Tags, maxTags)
	return x
}

func capSlice[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
