package store

import (
	"context"
	"testing"

	"github.com/rcliao/memory-engine/internal/model"
)

func TestUpsertUserProfile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	entries := []model.UserProfileEntry{
		{ID: "pref_editor_theme", Category: "editor", Key: "theme", Value: "dark", Confidence: 0.5},
		{ID: "pref_lang_primary", Category: "lang", Key: "primary", Value: "go", Confidence: 0.8},
	}
	for _, e := range entries {
		if err := s.UpsertUserProfile(ctx, e); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	// Replace the first entry; it keeps its position.
	err := s.UpsertUserProfile(ctx, model.UserProfileEntry{
		ID: "pref_editor_theme", Category: "editor", Key: "theme", Value: "light", Confidence: 0.9,
	})
	if err != nil {
		t.Fatal(err)
	}

	all, err := s.GetUserProfile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if all[0].ID != "pref_editor_theme" || all[0].Value != "light" || all[0].Confidence != 0.9 {
		t.Errorf("unexpected first entry: %+v", all[0])
	}
	if all[0].UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}
}

func TestUpsertUserProfile_EmptyID(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertUserProfile(context.Background(), model.UserProfileEntry{Category: "x"}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestGetUserProfileByCategory_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.UpsertUserProfile(ctx, model.UserProfileEntry{ID: "pref_editor_theme", Category: "editor", Key: "theme", Value: "dark"})

	got, err := s.GetUserProfileByCategory(ctx, "editor")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Value != "dark" {
		t.Fatalf("unexpected entries: %+v", got)
	}

	// Mutating the returned slice must not poison the cache.
	got[0].Value = "mutated"
	again, _ := s.GetUserProfileByCategory(ctx, "editor")
	if again[0].Value != "dark" {
		t.Errorf("cache returned mutated value %q", again[0].Value)
	}

	s.UpsertUserProfile(ctx, model.UserProfileEntry{ID: "pref_editor_theme", Category: "editor", Key: "theme", Value: "light"})
	s.UpsertUserProfile(ctx, model.UserProfileEntry{ID: "pref_editor_font", Category: "editor", Key: "font", Value: "mono"})

	after, _ := s.GetUserProfileByCategory(ctx, "editor")
	if len(after) != 2 || after[0].Value != "light" || after[1].Key != "font" {
		t.Errorf("stale cache after upsert: %+v", after)
	}

	empty, _ := s.GetUserProfileByCategory(ctx, "nothing")
	if len(empty) != 0 {
		t.Errorf("expected no entries, got %+v", empty)
	}
}
