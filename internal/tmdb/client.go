package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/mmcdole/lunastream/internal/domain"
)

const (
	// DefaultBaseURL is the v3 API root
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// CacheTTL is the lifetime of every cached response
	CacheTTL = 5 * time.Minute

	defaultTimeout = 30 * time.Second
	userAgent      = "LunaStream/1.0"
)

// Endpoint fully determines a read request: resource path plus query parameters.
// CacheKey, when set, replaces the request identity as cache key (e.g. to collapse pagination).
type Endpoint struct {
	Path     string
	Query    url.Values
	CacheKey string
}

// Key returns the cache key of the request. The API key is never part of it.
func (e Endpoint) Key() string {
	if e.CacheKey != "" {
		return e.CacheKey
	}
	if len(e.Query) == 0 {
		return e.Path
	}
	return e.Path + "?" + e.Query.Encode()
}

// cacheEntry stores a response body with the time it was fetched
type cacheEntry struct {
	Payload  json.RawMessage
	StoredAt time.Time
}

// Client reads from the metadata service and caches every response for CacheTTL.
// It implements domain.ListRepository, domain.SearchRepository and domain.GenreRepository.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	cache   map[string]cacheEntry
	cacheMu sync.RWMutex
	now     func() time.Time
}

// NewClient creates a new metadata client. timeout <= 0 selects the default.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		cache:  make(map[string]cacheEntry),
		now:    time.Now,
	}
}

// Fetch returns the JSON body of ep, from cache when an entry younger than CacheTTL exists.
// Failures are *domain.UpstreamError; nothing is retried.
func (c *Client) Fetch(ctx context.Context, ep Endpoint) (json.RawMessage, error) {
	key := ep.Key()

	if payload, ok := c.getFromCache(key); ok {
		c.logger.Debug("cache hit", "key", key)
		return payload, nil
	}

	body, err := c.doRequest(ctx, ep)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		c.logger.Error("invalid JSON from upstream", "path", ep.Path, "bodyLen", len(body))
		return nil, &domain.UpstreamError{Path: ep.Path, Err: errors.New("response is not valid JSON")}
	}

	c.setCache(key, body)
	return body, nil
}

// ClearCache drops every cached response
func (c *Client) ClearCache() {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.cache = make(map[string]cacheEntry)
	c.logger.Info("cleared metadata cache")
}

// doRequest performs one GET with the API key attached
func (c *Client) doRequest(ctx context.Context, ep Endpoint) ([]byte, error) {
	query := url.Values{}
	for k, v := range ep.Query {
		query[k] = v
	}
	query.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, ep.Path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Path: ep.Path, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("tmdb request", "path", ep.Path, "query", ep.Query.Encode())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("tmdb request failed", "path", ep.Path, "error", err)
		return nil, &domain.UpstreamError{Path: ep.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{Path: ep.Path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("tmdb request error", "path", ep.Path, "status", resp.StatusCode)
		return nil, &domain.UpstreamError{Status: resp.StatusCode, Path: ep.Path}
	}

	return body, nil
}

// getFromCache returns the payload if it is strictly younger than CacheTTL.
// Expired entries are reported as absent.
func (c *Client) getFromCache(key string) (json.RawMessage, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.StoredAt) >= CacheTTL {
		return nil, false
	}
	return entry.Payload, true
}

// setCache stores a payload stamped with the current time
func (c *Client) setCache(key string, payload json.RawMessage) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.cache[key] = cacheEntry{
		Payload:  payload,
		StoredAt: c.now(),
	}
}

// fetchInto fetches ep and decodes the body into a new T
func fetchInto[T any](ctx context.Context, c *Client, ep Endpoint) (*T, error) {
	body, err := c.Fetch(ctx, ep)
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		c.logger.Error("JSON parse error", "path", ep.Path, "error", err)
		return nil, &domain.UpstreamError{Path: ep.Path, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return &out, nil
}
