package entitysync

import (
	"context"
	"testing"
)

func TestMemoryStorePreservesInsertionOrder(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, key := range []string{"c", "a", "b"} {
		if err := store.Put(ctx, "widgets", Row{Key: key, Data: []byte(`{}`)}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	rows, err := store.GetAll(ctx, "widgets")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"c", "a", "b"} {
		if rows[i].Key != want {
			t.Fatalf("row %d: expected %s, got %s", i, want, rows[i].Key)
		}
	}
}

func TestMemoryStoreUpsertIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "widgets", Row{Key: "a", Data: []byte(`{"v":1}`)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "widgets", Row{Key: "b", Data: []byte(`{"v":1}`)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "widgets", Row{Key: "a", Data: []byte(`{"v":2}`)}); err != nil {
		t.Fatalf("re-put: %v", err)
	}

	rows, err := store.GetAll(ctx, "widgets")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("re-put duplicated the row: %d rows", len(rows))
	}
	if rows[0].Key != "a" || string(rows[0].Data) != `{"v":2}` {
		t.Fatalf("re-put did not replace in place: %s %s", rows[0].Key, rows[0].Data)
	}
	if rows[1].Key != "b" {
		t.Fatalf("unexpected second row %s", rows[1].Key)
	}
}

func TestMemoryStoreDeleteAndClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.PutAll(ctx, "widgets", []Row{
		{Key: "a", Data: []byte(`{}`)},
		{Key: "b", Data: []byte(`{}`)},
	}); err != nil {
		t.Fatalf("put all: %v", err)
	}

	if err := store.Delete(ctx, "widgets", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, err := store.GetAll(ctx, "widgets")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(rows) != 1 || rows[0].Key != "b" {
		t.Fatalf("unexpected rows after delete: %v", rows)
	}

	if err := store.Clear(ctx, "widgets"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	rows, err = store.GetAll(ctx, "widgets")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty table after clear, got %d rows", len(rows))
	}
}

func TestMemoryStoreTablesAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "widgets", Row{Key: "a", Data: []byte(`{}`)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(ctx, "gadgets", Row{Key: "a", Data: []byte(`{}`)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	if err := store.Clear(ctx, "gadgets"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	rows, err := store.GetAll(ctx, "widgets")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("clearing one table touched another: %d rows", len(rows))
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Put(ctx, "widgets", Row{Key: "a", Data: []byte(`{"v":1}`)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	rows, err := store.GetAll(ctx, "widgets")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	rows[0].Data[2] = 'X'

	again, err := store.GetAll(ctx, "widgets")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if string(again[0].Data) != `{"v":1}` {
		t.Fatalf("caller mutation leaked into store: %s", again[0].Data)
	}
}
