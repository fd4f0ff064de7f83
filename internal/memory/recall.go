package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/memory-engine/internal/budget"
	"github.com/rcliao/memory-engine/internal/model"
)

var ftsUnsafe = strings.NewReplacer(`'`, "", `"`, "", "*", "", "(", "", ")", "")

// RecallParams selects memories. A zero Limit takes DefaultRecallLimit; a
// negative Limit recalls nothing.
type RecallParams struct {
	Query     string
	Workspace string
	Types     []model.MemoryType
	Limit     int
}

// RecallMemories combines keyword matches with an importance/recency
// listing. Keyword matches come first; a chunk found by both appears once,
// at its keyword position. Every returned chunk is touched.
func (s *Service) RecallMemories(ctx context.Context, p RecallParams) []model.MemoryChunk {
	limit := p.Limit
	if limit == 0 {
		limit = DefaultRecallLimit
	}
	if limit < 0 {
		return nil
	}

	var results []model.MemoryChunk
	seen := make(map[string]bool)
	add := func(chunks []model.MemoryChunk) {
		for _, c := range chunks {
			if len(results) >= limit {
				return
			}
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			results = append(results, c)
		}
	}

	query := strings.TrimSpace(ftsUnsafe.Replace(p.Query))
	if query != "" {
		keywordLimit := (limit*keywordPercent + 99) / 100
		found, err := s.store.SearchMemories(ctx, query, p.Workspace, keywordLimit)
		if err != nil {
			s.log.Warn().Err(err).Str("workspace", p.Workspace).Msg("keyword search failed")
		}
		add(found)
	}

	if remaining := limit - len(results); remaining > 0 {
		// Over-fetch by what we already hold so duplicates cannot starve the fill.
		recent, err := s.store.GetMemoriesByWorkspace(ctx, p.Workspace, remaining+len(results))
		if err != nil {
			s.log.Warn().Err(err).Str("workspace", p.Workspace).Msg("recency listing failed")
		}
		add(recent)
	}

	if len(p.Types) > 0 {
		results = filterTypes(results, p.Types)
	}

	now := s.opts.Now()
	for i := range results {
		if err := s.store.TouchMemory(ctx, results[i].ID); err != nil {
			s.log.Warn().Err(err).Str("id", results[i].ID).Msg("touch failed")
			continue
		}
		accessed := now
		results[i].LastAccessedAt = &accessed
	}
	return results
}

func filterTypes(chunks []model.MemoryChunk, types []model.MemoryType) []model.MemoryChunk {
	allowed := make(map[model.MemoryType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	out := chunks[:0]
	for _, c := range chunks {
		if allowed[c.Type] {
			out = append(out, c)
		}
	}
	return out
}

// ContextParams selects what goes into a memory context block. A zero
// TotalTokens uses the configured budget total.
type ContextParams struct {
	Query       string
	Workspace   string
	TotalTokens int
}

// BuildMemoryContext formats profile entries and recalled memories into a
// prompt section truncated to the memory share of the budget. It returns
// false when there is nothing to include.
func (s *Service) BuildMemoryContext(ctx context.Context, p ContextParams) (string, bool) {
	cfg := s.opts.Budget
	if p.TotalTokens > 0 {
		cfg.TotalTokens = p.TotalTokens
	}
	alloc := budget.Allocate(cfg)

	profile := s.topProfile(ctx)
	memories := s.RecallMemories(ctx, RecallParams{
		Query:     p.Query,
		Workspace: p.Workspace,
		Limit:     s.opts.ContextLimit,
	})
	if len(profile) == 0 && len(memories) == 0 {
		return "", false
	}

	var sections []string
	if len(profile) > 0 {
		var b strings.Builder
		b.WriteString("## User Profile")
		for _, e := range profile {
			fmt.Fprintf(&b, "\n- %s/%s: %s", e.Category, e.Key, e.Value)
		}
		sections = append(sections, b.String())
	}
	if len(memories) > 0 {
		now := s.opts.Now()
		parts := []string{"## Relevant Memories"}
		for _, m := range memories {
			parts = append(parts, fmt.Sprintf("[%s — %s]\n%s", m.Type, TimeAgo(now, m.CreatedAt), m.Content))
		}
		sections = append(sections, strings.Join(parts, "\n\n"))
	}

	return budget.TruncateToTokenBudget(strings.Join(sections, "\n\n"), alloc.Memory), true
}

// topProfile returns the most confident entries at or above the threshold.
func (s *Service) topProfile(ctx context.Context) []model.UserProfileEntry {
	entries, err := s.store.GetUserProfile(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("profile read failed")
		return nil
	}
	var kept []model.UserProfileEntry
	for _, e := range entries {
		if e.Confidence >= s.opts.ProfileMinConfidence {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})
	if len(kept) > s.opts.ProfileLimit {
		kept = kept[:s.opts.ProfileLimit]
	}
	return kept
}

// TimeAgo renders the age of t relative to now in coarse buckets.
func TimeAgo(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	}
	days := int(d / (24 * time.Hour))
	if days < 30 {
		return fmt.Sprintf("%dd ago", days)
	}
	return fmt.Sprintf("%dmo ago", days/30)
}
