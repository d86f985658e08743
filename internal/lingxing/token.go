package lingxing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lxsync/internal/cache"
)

// Token is a cached access token. ExpiresAt is unix seconds, kept fractional
// so cache files written by earlier tooling still parse.
type Token struct {
	AccessToken string  `json:"access_token"`
	ExpiresAt   float64 `json:"expires_at"`
}

// Valid reports whether the token can be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.AccessToken != "" && float64(now.UnixNano())/1e9 < t.ExpiresAt
}

// Expiry returns ExpiresAt as a time.
func (t Token) Expiry() time.Time {
	sec := int64(t.ExpiresAt)
	return time.Unix(sec, int64((t.ExpiresAt-float64(sec))*1e9))
}

// TokenCache keeps access tokens between runs, keyed by app id, on top of any
// cache.Cache backend.
type TokenCache struct {
	store cache.Cache
	now   func() time.Time
}

// NewTokenCache creates a token cache over store.
func NewTokenCache(store cache.Cache) *TokenCache {
	return &TokenCache{store: store, now: time.Now}
}

// Load returns the cached token for appID. ok is false when the entry is
// missing, unreadable or expired.
func (c *TokenCache) Load(ctx context.Context, appID string) (Token, bool, error) {
	data, err := c.store.Get(ctx, appID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, fmt.Errorf("token cache: load: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return Token{}, false, nil
	}
	if !tok.Valid(c.now()) {
		return tok, false, nil
	}
	return tok, true, nil
}

// Save stores a token valid for expiresIn and returns the stored entry.
func (c *TokenCache) Save(ctx context.Context, appID, accessToken string, expiresIn time.Duration) (Token, error) {
	tok := Token{
		AccessToken: accessToken,
		ExpiresAt:   float64(c.now().Add(expiresIn).UnixNano()) / 1e9,
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return tok, fmt.Errorf("token cache: encode: %w", err)
	}
	if err := c.store.Set(ctx, appID, data, expiresIn); err != nil {
		return tok, fmt.Errorf("token cache: save: %w", err)
	}
	return tok, nil
}

// Invalidate drops the cached token for appID.
func (c *TokenCache) Invalidate(ctx context.Context, appID string) error {
	if err := c.store.Delete(ctx, appID); err != nil {
		return fmt.Errorf("token cache: invalidate: %w", err)
	}
	return nil
}
