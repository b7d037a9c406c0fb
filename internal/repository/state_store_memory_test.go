package repository

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStateStore(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(val) != "v" {
		t.Fatalf("get = %q, want v", val)
	}

	ok, err := store.Exists(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v, want true", ok, err)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, _ = store.Exists(ctx, "k")
	if ok {
		t.Fatal("key survived delete")
	}

	// A zero TTL means no expiry; missing keys return nil, nil.
	val, err = store.Get(ctx, "missing")
	if err != nil || val != nil {
		t.Fatalf("missing key = %q, %v, want nil, nil", val, err)
	}
}

func TestMemoryStateStoreTTL(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	ok, err := store.Exists(ctx, "k")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if ok {
		t.Fatal("expired key still exists")
	}
}
