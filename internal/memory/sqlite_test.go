package memory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rcliao/memory-engine/internal/model"
	"github.com/rcliao/memory-engine/internal/store"
)

func newSQLiteService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, Options{}), st
}

func TestCorrectionRecalledByKeyword(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteService(t)

	s.StoreMemory(ctx, StoreParams{Content: "the project uses go modules"})
	ids := s.StoreCorrection(ctx, CorrectionParams{Content: "Always use tabs, not spaces"})
	if len(ids) != 1 {
		t.Fatalf("expected 1 id, got %v", ids)
	}

	got := s.RecallMemories(ctx, RecallParams{Query: "tabs"})
	if len(got) == 0 {
		t.Fatal("expected results")
	}
	c := got[0]
	if c.ID != ids[0] || c.Type != model.TypeCorrection || c.Importance != 9 {
		t.Errorf("unexpected first result: %+v", c)
	}
	if !strings.Contains(c.Content, "Always use tabs, not spaces") {
		t.Errorf("content altered: %q", c.Content)
	}
	if c.LastAccessedAt == nil {
		t.Error("expected recalled chunk to be touched")
	}
}

func TestRecall_WorkspaceIsolation(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteService(t)

	s.StoreMemory(ctx, StoreParams{Content: "global deploy notes"})
	s.StoreMemory(ctx, StoreParams{Content: "alpha deploy notes", Workspace: "alpha"})
	s.StoreMemory(ctx, StoreParams{Content: "beta deploy notes", Workspace: "beta"})

	got := s.RecallMemories(ctx, RecallParams{Query: "deploy", Workspace: "alpha"})
	if len(got) != 2 {
		t.Fatalf("expected alpha plus global, got %d", len(got))
	}
	for _, c := range got {
		if c.Workspace == "beta" {
			t.Errorf("beta leaked into alpha recall: %+v", c)
		}
	}
}

func TestLearnPreference_Upsert(t *testing.T) {
	ctx := context.Background()
	s, st := newSQLiteService(t)

	for i := 0; i < 2; i++ {
		if err := s.LearnPreference(ctx, "comm", "style", "terse", 0); err != nil {
			t.Fatal(err)
		}
	}
	entries, _ := st.GetUserProfile(ctx)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}

	s.LearnPreference(ctx, "comm", "style", "verbose", 0.9)
	v, ok := s.GetProfileValue(ctx, "comm", "style")
	if !ok || v != "verbose" {
		t.Errorf("expected last write to win, got %q", v)
	}
}

func TestBuildMemoryContext_SQLite(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteService(t)

	if _, ok := s.BuildMemoryContext(ctx, ContextParams{Query: "tabs"}); ok {
		t.Fatal("expected no context for an empty store")
	}

	s.StoreCorrection(ctx, CorrectionParams{Content: "Always use tabs, not spaces"})
	s.LearnPreference(ctx, "code-style", "indent", "tabs", 0.9)

	out, ok := s.BuildMemoryContext(ctx, ContextParams{Query: "tabs"})
	if !ok {
		t.Fatal("expected context")
	}
	for _, want := range []string{"code-style/indent: tabs", "[correction — just now]", "Always use tabs"} {
		if !strings.Contains(out, want) {
			t.Errorf("context missing %q:\n%s", want, out)
		}
	}
}

func TestGetMemoryStats_SQLite(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteService(t)

	s.StoreMemory(ctx, StoreParams{Content: "g"})
	s.StoreMemory(ctx, StoreParams{Content: "a", Workspace: "alpha"})

	st := s.GetMemoryStats(ctx, "alpha")
	if st.TotalMemories != 2 || st.ProjectMemories != 1 || st.GlobalMemories != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
	if st.OldestMemory == nil || st.NewestMemory == nil {
		t.Error("expected time range to be filled")
	}
}
