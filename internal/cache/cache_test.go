package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var _ Cache = (*MemoryCache)(nil)
var _ Cache = (*FileCache)(nil)
var _ Cache = (*RedisCache)(nil)

func TestMemoryCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	if _, err := c.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	got[0] = 'x'
	again, _ := c.Get(ctx, "k")
	if string(again) != "v" {
		t.Fatalf("cache returned shared slice: %q", again)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after delete, got %v", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("1"), time.Second)
	_ = c.Set(ctx, "forever", []byte("2"), 0)

	now = now.Add(time.Second)
	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
	if v, err := c.Get(ctx, "forever"); err != nil || string(v) != "2" {
		t.Fatalf("zero ttl entry = %q, %v", v, err)
	}
}

func TestFileCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir, "")
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	if _, err := c.Get(ctx, "ak_1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	payload := []byte(`{"access_token":"t","expires_at":1}`)
	if err := c.Set(ctx, "ak_1", payload, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	want := filepath.Join(dir, ".token_cache_ak_1.json")
	if c.Path("ak_1") != want {
		t.Fatalf("Path = %s, want %s", c.Path("ak_1"), want)
	}
	onDisk, err := os.ReadFile(want)
	if err != nil || string(onDisk) != string(payload) {
		t.Fatalf("file content = %q, %v", onDisk, err)
	}

	got, err := c.Get(ctx, "ak_1")
	if err != nil || string(got) != string(payload) {
		t.Fatalf("Get = %q, %v", got, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the cache file, found %d entries", len(entries))
	}

	if err := c.Delete(ctx, "ak_1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "ak_1"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestFileCache_SanitizesKey(t *testing.T) {
	c, err := NewFileCache(t.TempDir(), "tok_%s")
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if base := filepath.Base(c.Path("../a:b")); base != "tok_.._a_b" {
		t.Fatalf("sanitized name = %s", base)
	}
}

func TestFileCache_RejectsBadPattern(t *testing.T) {
	if _, err := NewFileCache(t.TempDir(), "no-verb"); err == nil {
		t.Fatalf("expected error for pattern without %%s")
	}
}

func TestRedisCache_Key(t *testing.T) {
	c := NewRedisCacheFromClient(nil, "")
	if got := c.Key("ak_1"); got != "lxsync:token:ak_1" {
		t.Fatalf("Key = %s", got)
	}
	c = NewRedisCacheFromClient(nil, "custom")
	if got := c.Key("ak_1"); got != "custom:ak_1" {
		t.Fatalf("Key = %s", got)
	}
}

func TestRedisCache_Live(t *testing.T) {
	addr := os.Getenv("LXSYNC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LXSYNC_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisConfig{Addr: addr, KeyPrefix: "lxsync:test"})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := c.Get(ctx, "k"); err != nil || string(v) != "v" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
}
