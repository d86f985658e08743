// Package lingxing is the client for the Lingxing ERP open API: access
// tokens, the Amazon shop listing and the FBA inventory detail.
package lingxing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"lxsync/internal/httpclient"
	"lxsync/internal/logging"
	"lxsync/internal/model"
	"lxsync/pkg/syncerr"
	"lxsync/pkg/uid"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	tokenPath     = "/api/auth-server/oauth/access-token"
	shopsPath     = "/erp/sc/data/seller/lists"
	inventoryPath = "/basicOpen/openapi/storage/fbaWarehouseDetail"

	// CodeSignatureMismatch is the business code for a rejected signature.
	CodeSignatureMismatch = 2001006

	codeTokenOK = 200
	codeDataOK  = 0

	defaultTokenTTL = time.Hour

	MinPageSize = 20
	MaxPageSize = 200

	// maxPages stops a listing that never returns a short page.
	maxPages = 10000
)

// Doer sends one JSON request. *httpclient.Client implements it.
type Doer interface {
	DoInto(ctx context.Context, req httpclient.Request, out any) error
}

// Config holds the credentials and inventory request defaults.
type Config struct {
	Credentials Credentials

	// HideZeroStock is sent as is_hide_zero_stock ("0" or "1").
	HideZeroStock string
	// QueryStorageList asks for the per-warehouse breakdown of shared stock.
	QueryStorageList bool
}

// Client talks to the ERP on behalf of one app id.
type Client struct {
	cfg    Config
	http   Doer
	tokens *TokenCache
	logger zerolog.Logger
	now    func() time.Time
	flight singleflight.Group
}

// New creates a client. Credentials are validated up front.
func New(cfg Config, doer Doer, tokens *TokenCache, logger zerolog.Logger) (*Client, error) {
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, err
	}
	if cfg.HideZeroStock == "" {
		cfg.HideZeroStock = "0"
	}
	return &Client{
		cfg:    cfg,
		http:   doer,
		tokens: tokens,
		logger: logging.Component(logger, "lingxing"),
		now:    time.Now,
	}, nil
}

type tokenResponse struct {
	Code    model.Code `json:"code"`
	Message string     `json:"message"`
	Msg     string     `json:"msg"`
	Data    *struct {
		AccessToken string         `json:"access_token"`
		ExpiresIn   *model.Seconds `json:"expires_in"`
	} `json:"data"`
}

type pageResponse struct {
	Code    model.Code      `json:"code"`
	Message string          `json:"message"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

func (r *pageResponse) message() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Msg
}

func (r *pageResponse) rows() ([]map[string]any, error) {
	raw := strings.TrimSpace(string(r.Data))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GenerateAccessToken returns a cached token while it is valid, otherwise
// requests a new one and caches it. forceRefresh skips the cache lookup.
func (c *Client) GenerateAccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	tok, err := c.Token(ctx, forceRefresh)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Token is GenerateAccessToken returning the expiry as well.
func (c *Client) Token(ctx context.Context, forceRefresh bool) (Token, error) {
	appID := c.cfg.Credentials.AppID
	if !forceRefresh {
		tok, ok, err := c.tokens.Load(ctx, appID)
		if err != nil {
			c.logger.Warn().Err(err).Msg("token cache unavailable, requesting a new token")
		}
		if ok {
			c.logger.Debug().Str("token", logging.Mask(tok.AccessToken)).Time("expires_at", tok.Expiry()).Msg("using cached access token")
			return tok, nil
		}
	}

	v, err, _ := c.flight.Do(appID, func() (any, error) {
		return c.requestToken(ctx)
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

func (c *Client) requestToken(ctx context.Context) (Token, error) {
	const op = "lingxing.access_token"
	creds := c.cfg.Credentials

	var resp tokenResponse
	err := c.http.DoInto(ctx, httpclient.Request{
		Method: http.MethodPost,
		URL:    creds.endpoint(tokenPath),
		Form:   url.Values{"appId": {creds.AppID}, "appSecret": {creds.AppSecret}},
	}, &resp)
	if err != nil {
		var serr *httpclient.StatusError
		var perr *httpclient.ParseError
		switch {
		case errors.As(err, &serr) && serr.StatusCode < 500 && serr.StatusCode != http.StatusTooManyRequests,
			errors.As(err, &perr):
			return Token{}, syncerr.Auth(op, "token request failed", err)
		default:
			return Token{}, syncerr.Transport(op, err)
		}
	}

	if !resp.Code.Is(codeTokenOK) {
		msg := resp.Message
		if msg == "" {
			msg = resp.Msg
		}
		return Token{}, syncerr.Auth(op, "token endpoint rejected credentials: "+msg, nil).WithCode(string(resp.Code))
	}
	if resp.Data == nil || resp.Data.AccessToken == "" {
		return Token{}, syncerr.Auth(op, "token response has no access_token", nil)
	}

	ttl := defaultTokenTTL
	if resp.Data.ExpiresIn != nil && *resp.Data.ExpiresIn > 0 {
		ttl = time.Duration(*resp.Data.ExpiresIn) * time.Second
	}

	tok, err := c.tokens.Save(ctx, creds.AppID, resp.Data.AccessToken, ttl)
	if err != nil {
		c.logger.Warn().Err(err).Msg("could not cache access token")
	}
	c.logger.Info().Str("token", logging.Mask(tok.AccessToken)).Dur("ttl", ttl).Msg("obtained access token")
	return tok, nil
}

// FetchShops pages through the Amazon shop listing and returns every row in
// one synthesized envelope.
func (c *Client) FetchShops(ctx context.Context, token string, pageSize int) (*model.Envelope, error) {
	const op = "lingxing.fetch_shops"
	pageSize = clampPageSize(pageSize)

	var all []map[string]any
	for page := 1; ; page++ {
		if page > maxPages {
			return nil, syncerr.Upstream(op, "", fmt.Sprintf("listing did not end after %d pages", maxPages))
		}
		query := map[string]any{
			"app_key":      c.cfg.Credentials.AppID,
			"access_token": token,
			"timestamp":    c.timestamp(),
			"page":         page,
			"page_size":    pageSize,
		}
		rows, strategy, err := c.fetchPage(ctx, op, http.MethodGet, shopsPath, query, nil, ShopStrategies)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		c.logger.Info().Int("page", page).Int("rows", len(rows)).Str("strategy", strategy).Msg("fetched shops page")
		if len(rows) < pageSize {
			break
		}
	}

	return model.NewEnvelope(all, c.now(), uid.Compact()), nil
}

// FetchInventory pages through the FBA inventory detail. filters are added to
// the request body; offset and length are always controlled by the pager.
func (c *Client) FetchInventory(ctx context.Context, token string, length int, filters map[string]any) ([]map[string]any, error) {
	const op = "lingxing.fetch_inventory"
	length = clampPageSize(length)

	var all []map[string]any
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, syncerr.Upstream(op, "", fmt.Sprintf("inventory did not end after %d pages", maxPages))
		}
		offset := page * length
		query := map[string]any{
			"app_key":      c.cfg.Credentials.AppID,
			"access_token": token,
			"timestamp":    c.timestamp(),
		}
		body := map[string]any{"is_hide_zero_stock": c.cfg.HideZeroStock}
		if c.cfg.QueryStorageList {
			body["query_fba_storage_quantity_list"] = true
		}
		maps.Copy(body, filters)
		body["offset"] = offset
		body["length"] = length

		rows, strategy, err := c.fetchPage(ctx, op, http.MethodPost, inventoryPath, query, body, InventoryStrategies)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		c.logger.Info().Int("offset", offset).Int("rows", len(rows)).Str("strategy", strategy).Msg("fetched inventory page")
		if len(rows) < length {
			break
		}
	}

	c.logger.Info().Int("rows", len(all)).Msg("inventory fetch complete")
	return all, nil
}

// fetchPage requests one page, moving through strategies while upstream
// reports a signature mismatch.
func (c *Client) fetchPage(ctx context.Context, op, method, path string, query, body map[string]any, strategies []Strategy) ([]map[string]any, string, error) {
	seed := c.cfg.Credentials.AppID
	for _, s := range strategies {
		q, err := s.Sign(query, body, seed)
		if err != nil {
			return nil, "", fmt.Errorf("%s: sign with %s: %w", op, s.Name, err)
		}
		c.debugRequest(method, path, s.Name, q, body)

		req := httpclient.Request{Method: method, URL: c.cfg.Credentials.endpoint(path), Query: q}
		if body != nil {
			req.JSON = body
		}
		var resp pageResponse
		if err := c.http.DoInto(ctx, req, &resp); err != nil {
			return nil, "", wrapHTTPError(op, err)
		}

		switch {
		case resp.Code.Is(codeDataOK):
			rows, err := resp.rows()
			if err != nil {
				return nil, "", syncerr.Upstream(op, string(resp.Code), "data is not a list of records")
			}
			return rows, s.Name, nil
		case resp.Code.Is(CodeSignatureMismatch):
			c.logger.Warn().Str("strategy", s.Name).Str("code", string(resp.Code)).Msg("signature rejected, trying next strategy")
			continue
		default:
			return nil, "", syncerr.Upstream(op, string(resp.Code), resp.message())
		}
	}
	return nil, "", syncerr.SignatureRejected(op, strategyNames(strategies)).WithCode(strconv.Itoa(CodeSignatureMismatch))
}

func wrapHTTPError(op string, err error) error {
	var serr *httpclient.StatusError
	if errors.As(err, &serr) {
		if serr.StatusCode == http.StatusUnauthorized || serr.StatusCode == http.StatusForbidden {
			return syncerr.Auth(op, "access token rejected", err)
		}
		return syncerr.Transport(op, err)
	}
	var perr *httpclient.ParseError
	if errors.As(err, &perr) {
		return &syncerr.Error{Kind: syncerr.KindUpstream, Op: op, Message: "response is not JSON", Err: err}
	}
	return syncerr.Transport(op, err)
}

func (c *Client) debugRequest(method, path, strategy string, query url.Values, body map[string]any) {
	if c.logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	masked := url.Values{}
	for k, v := range query {
		masked[k] = v
	}
	for _, k := range []string{"access_token", "sign"} {
		if v := masked.Get(k); v != "" {
			masked.Set(k, logging.Mask(v))
		}
	}
	ev := c.logger.Debug().Str("method", method).Str("path", path).Str("strategy", strategy).Str("query", masked.Encode())
	if body != nil {
		b, _ := json.Marshal(body)
		ev = ev.RawJSON("body", b)
	}
	ev.Msg("prepared request")
}

func (c *Client) timestamp() string {
	return strconv.FormatInt(c.now().Unix(), 10)
}

func clampPageSize(n int) int {
	return max(MinPageSize, min(MaxPageSize, n))
}
