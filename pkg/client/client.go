// Package client talks to the note API: it fetches a note by ID and
// saves edits with PATCH /{id}.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"notedit/pkg/errors"
	"notedit/pkg/models"
)

const (
	// DefaultTimeout applies to requests whose context has no deadline
	DefaultTimeout = 30 * time.Second

	// DefaultCacheSize is the number of fetched notes kept in memory
	DefaultCacheSize = 64

	// DefaultCacheTTL is how long a fetched note is served from memory
	DefaultCacheTTL = 10 * time.Second

	defaultUserAgent = "notedit"

	// maxErrorBody caps how much of an error response is kept for logging
	maxErrorBody = 512
)

// Config holds settings for the note API client
type Config struct {
	// BaseURL is the API root; note IDs are appended as a path segment
	BaseURL string

	// Timeout is applied if the request context has no deadline
	Timeout time.Duration

	// UserAgent is added to all requests
	UserAgent string

	// CacheSize and CacheTTL control the fetch cache; a negative size
	// disables it
	CacheSize int
	CacheTTL  time.Duration

	// HTTPClient overrides the underlying client, mainly for tests
	HTTPClient *http.Client
}

type cachedNote struct {
	note      *models.Note
	fetchedAt time.Time
}

// Client is a note API client. Safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string
	cache     *lru.Cache[string, cachedNote]
	cacheTTL  time.Duration
	now       func() time.Time
}

// New creates a client for the API rooted at cfg.BaseURL
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.New(errors.ErrTypeConfig, "INVALID_API_URL", "invalid API base URL").
			WithUserMessage("The note API address is not a valid URL").
			WithContext("url", cfg.BaseURL)
	}

	c := &Client{
		baseURL:   base,
		http:      cfg.HTTPClient,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		cacheTTL:  cfg.CacheTTL,
		now:       time.Now,
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if c.cacheTTL == 0 {
		c.cacheTTL = DefaultCacheTTL
	}
	if c.http == nil {
		c.http = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
			},
		}
	}

	size := cfg.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	if size > 0 {
		cache, err := lru.New[string, cachedNote](size)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}

	return c, nil
}

// FetchNote returns the note with the given ID
func (c *Client) FetchNote(ctx context.Context, id string) (*models.Note, error) {
	if result := errors.NewValidator().ValidateNoteID(id); !result.IsValid {
		return nil, result.GetFirstError()
	}
	if note, ok := c.cached(id); ok {
		return note, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, http.MethodGet, id, nil)
	if err != nil {
		return nil, errors.ErrFetchFailed.WithCause(err).WithContext("noteId", id)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errors.ErrNoteNotFound.WithContext("noteId", id)
	default:
		return nil, errors.ErrFetchFailed.
			WithCause(statusError(resp)).
			WithContext("noteId", id).
			WithContext("status", resp.StatusCode)
	}

	var note models.Note
	if err := json.NewDecoder(resp.Body).Decode(&note); err != nil {
		return nil, errors.ErrInvalidNote.WithCause(err).WithContext("noteId", id)
	}
	if note.ID == "" {
		note.ID = id
	}

	if c.cache != nil {
		c.cache.Add(id, cachedNote{note: note.Clone(), fetchedAt: c.now()})
	}
	return &note, nil
}

// UpdateNote sends the title and contents with PATCH /{id}. Only status
// 200 counts as success.
func (c *Client) UpdateNote(ctx context.Context, id string, note *models.Note) error {
	if result := errors.NewValidator().ValidateNoteID(id); !result.IsValid {
		return result.GetFirstError()
	}
	body, err := json.Marshal(struct {
		Title    string         `json:"title"`
		Contents []models.Block `json:"contents"`
	}{
		Title:    note.Title,
		Contents: nonNil(note.Contents),
	})
	if err != nil {
		return errors.ErrInvalidNote.WithCause(err).WithContext("noteId", id)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, http.MethodPatch, id, body)
	if err != nil {
		return errors.ErrSaveTransport.WithCause(err).WithContext("noteId", id)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ErrSaveTransport.
			WithCause(statusError(resp)).
			WithContext("noteId", id).
			WithContext("status", resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	if c.cache != nil {
		c.cache.Remove(id)
	}
	return nil
}

// Close releases idle connections
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) cached(id string) (*models.Note, bool) {
	if c.cache == nil {
		return nil, false
	}
	entry, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.fetchedAt) > c.cacheTTL {
		c.cache.Remove(id)
		return nil, false
	}
	return entry.note.Clone(), true
}

func (c *Client) noteURL(id string) string {
	return c.baseURL.JoinPath(id).String()
}

// withTimeout applies the default timeout when ctx has no deadline
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

func (c *Client) send(ctx context.Context, method, id string, body []byte) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.noteURL(id), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.http.Do(req)
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
}

func nonNil(blocks []models.Block) []models.Block {
	if blocks == nil {
		return []models.Block{}
	}
	return blocks
}
