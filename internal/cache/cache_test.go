package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Fatal("empty cache should miss")
	}
	if err := m.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := m.Get(ctx, "k")
	if !ok || got != "v" {
		t.Fatalf("expected hit with v, got %q ok=%v", got, ok)
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok := m.Get(ctx, "k"); ok {
		t.Fatal("expired entry should miss")
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("v1", []byte(`{"state":"GA"}`))
	b := Key("v1", []byte(`{"state":"GA"}`))
	if a != b {
		t.Fatal("identical inputs must hash identically")
	}
	if Key("v2", []byte(`{"state":"GA"}`)) == a {
		t.Fatal("catalog version must partition the key space")
	}
	if Key("v1", []byte(`{"state":"FL"}`)) == a {
		t.Fatal("payload must partition the key space")
	}
}
