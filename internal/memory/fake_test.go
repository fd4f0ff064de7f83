package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/memory-engine/internal/model"
	"github.com/rcliao/memory-engine/internal/store"
)

var errBoom = errors.New("boom")

// fakeStore is an in-memory store.Store with failure injection. Search
// returns searchResult verbatim; listing returns chunks in insertion order.
type fakeStore struct {
	chunks       []model.MemoryChunk
	profile      []model.UserProfileEntry
	searchResult []model.MemoryChunk

	failInsertAt map[int]bool
	searchErr    error
	listErr      error
	touchErr     error
	profileErr   error

	inserts      int
	touched      []string
	searchCalls  []string
	searchLimits []int
	listLimits   []int
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) InsertMemoryChunk(_ context.Context, c model.MemoryChunk) error {
	f.inserts++
	if f.failInsertAt[f.inserts] {
		return fmt.Errorf("insert %d: %w", f.inserts, errBoom)
	}
	f.chunks = append(f.chunks, c)
	return nil
}

func (f *fakeStore) SearchMemories(_ context.Context, query, _ string, limit int) ([]model.MemoryChunk, error) {
	f.searchCalls = append(f.searchCalls, query)
	f.searchLimits = append(f.searchLimits, limit)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.searchResult) > limit {
		return f.searchResult[:limit], nil
	}
	return f.searchResult, nil
}

func (f *fakeStore) GetMemoriesByWorkspace(_ context.Context, _ string, limit int) ([]model.MemoryChunk, error) {
	f.listLimits = append(f.listLimits, limit)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.chunks) > limit {
		return f.chunks[:limit], nil
	}
	return f.chunks, nil
}

func (f *fakeStore) TouchMemory(_ context.Context, id string) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeStore) GetMemoryCount(_ context.Context, workspace *string) (int, error) {
	n := 0
	for _, c := range f.chunks {
		if workspace == nil || c.Workspace == *workspace {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) GetMemoryTimeRange(_ context.Context, _ *string) (*time.Time, *time.Time, error) {
	var oldest, newest *time.Time
	for i := range f.chunks {
		t := f.chunks[i].CreatedAt
		if oldest == nil || t.Before(*oldest) {
			oldest = &t
		}
		if newest == nil || t.After(*newest) {
			newest = &t
		}
	}
	return oldest, newest, nil
}

func (f *fakeStore) GetUserProfile(_ context.Context) ([]model.UserProfileEntry, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeStore) GetUserProfileByCategory(_ context.Context, category string) ([]model.UserProfileEntry, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	var out []model.UserProfileEntry
	for _, e := range f.profile {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertUserProfile(_ context.Context, e model.UserProfileEntry) error {
	if f.profileErr != nil {
		return f.profileErr
	}
	for i := range f.profile {
		if f.profile[i].ID == e.ID {
			f.profile[i] = e
			return nil
		}
	}
	f.profile = append(f.profile, e)
	return nil
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newFakeService(f *fakeStore) *Service {
	n := 0
	return New(f, Options{
		Now: func() time.Time { return fixedNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
}

func chunk(id string, typ model.MemoryType) model.MemoryChunk {
	return model.MemoryChunk{ID: id, Type: typ, Content: "content " + id, Importance: 5, CreatedAt: fixedNow}
}
