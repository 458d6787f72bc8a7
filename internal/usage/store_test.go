package usage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewStoreWithPath(dbPath)
	if err != nil {
		t.Fatalf("NewStoreWithPath() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RecordAndTotal(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	entries := []*Entry{
		{SessionID: "s1", Operation: "generate", Model: "gpt-image-1", TotalTokens: 4000},
		{SessionID: "s1", Operation: "edit", Model: "gpt-image-1", TotalTokens: 5000},
		{SessionID: "s2", Operation: "generate", Model: "gpt-image-1", TotalTokens: 3000},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Record() did not assign an ID")
		}
	}

	total, err := store.Total(ctx)
	if err != nil {
		t.Fatalf("Total() error = %v", err)
	}
	if total.Calls != 3 {
		t.Errorf("Total().Calls = %d, want 3", total.Calls)
	}
	if total.TotalTokens != 12000 {
		t.Errorf("Total().TotalTokens = %d, want 12000", total.TotalTokens)
	}
}

func TestStore_SessionTotal(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	store.Record(ctx, &Entry{SessionID: "s1", Operation: "generate", Model: "m", TotalTokens: 100})
	store.Record(ctx, &Entry{SessionID: "s2", Operation: "generate", Model: "m", TotalTokens: 900})

	got, err := store.SessionTotal(ctx, "s1")
	if err != nil {
		t.Fatalf("SessionTotal() error = %v", err)
	}
	if got.Calls != 1 || got.TotalTokens != 100 {
		t.Errorf("SessionTotal() = %+v, want 1 call, 100 tokens", got)
	}

	empty, err := store.SessionTotal(ctx, "missing")
	if err != nil {
		t.Fatalf("SessionTotal() error = %v", err)
	}
	if empty.Calls != 0 || empty.TotalTokens != 0 {
		t.Errorf("SessionTotal(missing) = %+v, want zeros", empty)
	}
}

func TestStore_ByOperation(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	store.Record(ctx, &Entry{SessionID: "s", Operation: "generate", Model: "m", TotalTokens: 10})
	store.Record(ctx, &Entry{SessionID: "s", Operation: "edit", Model: "m", TotalTokens: 20})
	store.Record(ctx, &Entry{SessionID: "s", Operation: "edit", Model: "m", TotalTokens: 30})

	got, err := store.ByOperation(ctx)
	if err != nil {
		t.Fatalf("ByOperation() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ByOperation() len = %d, want 2", len(got))
	}
	// ordered by operation name: edit, generate
	if got[0].Operation != "edit" || got[0].Calls != 2 || got[0].TotalTokens != 50 {
		t.Errorf("ByOperation()[0] = %+v", got[0])
	}
	if got[1].Operation != "generate" || got[1].Calls != 1 || got[1].TotalTokens != 10 {
		t.Errorf("ByOperation()[1] = %+v", got[1])
	}
}

func TestStore_ByDateRange(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	store.Record(ctx, &Entry{SessionID: "s", Operation: "generate", Model: "m", TotalTokens: 10, Timestamp: old})
	store.Record(ctx, &Entry{SessionID: "s", Operation: "generate", Model: "m", TotalTokens: 20})

	got, err := store.ByDateRange(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("ByDateRange() error = %v", err)
	}
	if got.Calls != 1 || got.TotalTokens != 20 {
		t.Errorf("ByDateRange() = %+v, want 1 call, 20 tokens", got)
	}
}
