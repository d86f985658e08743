package lingxing

import (
	"context"
	"testing"
	"time"

	"lxsync/internal/cache"
)

func TestTokenCache_FileBackendKeepsLegacyShape(t *testing.T) {
	ctx := context.Background()
	store, err := cache.NewFileCache(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	// A file written by the previous tooling.
	legacy := []byte(`{"access_token": "legacy-token", "expires_at": 1700003600.25}`)
	if err := store.Set(ctx, "ak_1", legacy, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tc := NewTokenCache(store)
	tc.now = func() time.Time { return time.Unix(1700000000, 0) }

	tok, ok, err := tc.Load(ctx, "ak_1")
	if err != nil || !ok || tok.AccessToken != "legacy-token" {
		t.Fatalf("Load = %+v, %v, %v", tok, ok, err)
	}

	tc.now = func() time.Time { return time.Unix(1700003601, 0) }
	if _, ok, _ := tc.Load(ctx, "ak_1"); ok {
		t.Fatalf("expired token reported valid")
	}
}

func TestTokenCache_SaveInvalidate(t *testing.T) {
	ctx := context.Background()
	tc := NewTokenCache(cache.NewMemoryCache())
	now := time.Unix(1700000000, 0)
	tc.now = func() time.Time { return now }

	saved, err := tc.Save(ctx, "ak_1", "abc", 2*time.Hour)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !saved.Expiry().Equal(now.Add(2 * time.Hour)) {
		t.Fatalf("expiry = %v", saved.Expiry())
	}
	if tok, ok, _ := tc.Load(ctx, "ak_1"); !ok || tok.AccessToken != "abc" {
		t.Fatalf("Load after Save = %+v %v", tok, ok)
	}
	if err := tc.Invalidate(ctx, "ak_1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, ok, _ := tc.Load(ctx, "ak_1"); ok {
		t.Fatalf("token still cached after Invalidate")
	}
}

func TestTokenCache_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCache()
	_ = store.Set(ctx, "ak_1", []byte("not json"), 0)
	tc := NewTokenCache(store)
	if _, ok, err := tc.Load(ctx, "ak_1"); ok || err != nil {
		t.Fatalf("corrupt entry: ok=%v err=%v", ok, err)
	}
}
