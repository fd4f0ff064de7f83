package memory

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rcliao/memory-engine/internal/model"
	"github.com/rcliao/memory-engine/internal/store"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]`)

// profileID derives the deterministic entry id for category and key.
func profileID(category, key string) string {
	return "pref_" + nonAlnum.ReplaceAllString(category+"_"+key, "_")
}

// LearnPreference upserts a profile entry. Repeated calls for the same
// category and key overwrite value and confidence. A confidence of zero or
// less takes DefaultConfidence; values above 1 are clamped.
func (s *Service) LearnPreference(ctx context.Context, category, key, value string, confidence float64) error {
	if confidence <= 0 {
		confidence = DefaultConfidence
	}
	if confidence > 1 {
		confidence = 1
	}
	category = s.filter.Sanitize(category)
	key = s.filter.Sanitize(key)
	e := model.UserProfileEntry{
		ID:         profileID(category, key),
		Category:   category,
		Key:        key,
		Value:      s.filter.Sanitize(value),
		Confidence: confidence,
		UpdatedAt:  s.opts.Now(),
	}
	if err := s.store.UpsertUserProfile(ctx, e); err != nil {
		return fmt.Errorf("learn preference %s/%s: %w", category, key, err)
	}
	return nil
}

// GetProfileValue returns the learned value for category and key.
func (s *Service) GetProfileValue(ctx context.Context, category, key string) (string, bool) {
	category = s.filter.Sanitize(category)
	key = s.filter.Sanitize(key)
	entries, err := s.store.GetUserProfileByCategory(ctx, category)
	if err != nil {
		s.log.Warn().Err(err).Str("category", category).Msg("profile read failed")
		return "", false
	}
	for _, e := range entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// ProfileGroup is one category of profile entries.
type ProfileGroup struct {
	Category string                   `json:"category"`
	Entries  []model.UserProfileEntry `json:"entries"`
}

// GetFormattedProfile groups all entries by category in first-seen order.
func (s *Service) GetFormattedProfile(ctx context.Context) []ProfileGroup {
	entries, err := s.store.GetUserProfile(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("profile read failed")
		return nil
	}

	var groups []ProfileGroup
	index := make(map[string]int)
	for _, e := range entries {
		i, ok := index[e.Category]
		if !ok {
			i = len(groups)
			index[e.Category] = i
			groups = append(groups, ProfileGroup{Category: e.Category})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// Stats summarizes stored memory.
type Stats struct {
	TotalMemories   int        `json:"total_memories"`
	ProjectMemories int        `json:"project_memories"`
	GlobalMemories  int        `json:"global_memories"`
	ProfileEntries  int        `json:"profile_entries"`
	OldestMemory    *time.Time `json:"oldest_memory"`
	NewestMemory    *time.Time `json:"newest_memory"`
}

// GetMemoryStats counts memories overall, in workspace and in the global
// tier. ProjectMemories is zero when workspace is empty.
func (s *Service) GetMemoryStats(ctx context.Context, workspace string) Stats {
	var st Stats
	var err error

	if st.TotalMemories, err = s.store.GetMemoryCount(ctx, nil); err != nil {
		s.log.Warn().Err(err).Msg("count failed")
	}
	if st.GlobalMemories, err = s.store.GetMemoryCount(ctx, store.Scope("")); err != nil {
		s.log.Warn().Err(err).Msg("global count failed")
	}
	if workspace != "" {
		if st.ProjectMemories, err = s.store.GetMemoryCount(ctx, store.Scope(workspace)); err != nil {
			s.log.Warn().Err(err).Str("workspace", workspace).Msg("workspace count failed")
		}
	}
	if entries, err := s.store.GetUserProfile(ctx); err != nil {
		s.log.Warn().Err(err).Msg("profile read failed")
	} else {
		st.ProfileEntries = len(entries)
	}
	if st.OldestMemory, st.NewestMemory, err = s.store.GetMemoryTimeRange(ctx, nil); err != nil {
		s.log.Warn().Err(err).Msg("time range failed")
	}
	return st
}
