// File path: internal/search/client.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"queryscope/internal/common"
	"queryscope/internal/common/telemetry"
)

var (
	// ErrUnavailable marks transport or backend-side failures. The caller
	// cannot distinguish a down backend from a broken one; both surface as
	// a server error.
	ErrUnavailable = errors.New("search backend unavailable")
	// ErrMalformed marks responses that arrived but could not be decoded
	// into the expected structure.
	ErrMalformed = errors.New("malformed search response")
)

// Store is the capability this service needs from the document-search
// backend: one filtered search against one index.
type Store interface {
	Available() bool
	Index() string
	Search(ctx context.Context, index string, req *SearchRequest) (*SearchResponse, error)
}

type Client struct {
	httpClient *http.Client
	transport  *http.Transport

	baseURL string
	index   string
	apiKey  string

	mu        sync.RWMutex
	available bool
}

// NewFromEnv constructs a client from SEARCH_* environment configuration.
func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// New constructs a client using the provided configuration. An unreachable
// backend is logged and marked unavailable rather than failing startup; the
// first successful search flips the client back to available.
func New(ctx context.Context, cfg Config) (*Client, error) {
	baseURL := fmt.Sprintf("%s://%s:%s", cfg.Scheme, cfg.Host, cfg.Port)
	logger := common.Logger()
	logger.Info(
		"search: initializing backend client",
		"host", cfg.Host,
		"port", cfg.Port,
		"index", cfg.Index,
		"timeout", cfg.Timeout,
	)

	transport := &http.Transport{
		MaxIdleConns:        cfg.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: cfg.HTTPMaxIdlePerHost,
		MaxConnsPerHost:     cfg.HTTPMaxConnsPerHost,
		IdleConnTimeout:     cfg.HTTPIdleConnTimeout,
	}

	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		baseURL:    strings.TrimRight(baseURL, "/"),
		index:      cfg.Index,
		apiKey:     cfg.APIKey,
	}

	if err := client.ensureReady(ctx); err != nil {
		logger.Warn("search: backend probe failed", "index", cfg.Index, "error", err)
		return client, nil
	}
	logger.Info("search: backend connection established")
	return client, nil
}

func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// Index returns the configured default index name.
func (c *Client) Index() string {
	if c == nil {
		return ""
	}
	return c.index
}

func (c *Client) setAvailable(ok bool) {
	c.mu.Lock()
	c.available = ok
	c.mu.Unlock()
}

func (c *Client) ensureReady(ctx context.Context) error {
	if c == nil {
		return errors.New("search client not configured")
	}
	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = c.health(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			c.setAvailable(false)
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
		}
	}
	if err != nil {
		c.setAvailable(false)
		return err
	}
	c.setAvailable(true)
	return nil
}

func (c *Client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: health check status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// Search issues one _search call against index. Transport failures and
// backend-side error statuses wrap ErrUnavailable; an undecodable body wraps
// ErrMalformed.
func (c *Client) Search(ctx context.Context, index string, req *SearchRequest) (*SearchResponse, error) {
	if c == nil {
		return nil, errors.New("search client not configured")
	}
	if strings.TrimSpace(index) == "" {
		index = c.index
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s/_search", c.baseURL, url.PathEscape(index))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		telemetry.RecordSearch(false, time.Since(start))
		c.setAvailable(false)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		telemetry.RecordSearch(false, time.Since(start))
		c.setAvailable(false)
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("%w: search %s status %d: %s",
			ErrUnavailable, index, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		telemetry.RecordSearch(false, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	telemetry.RecordSearch(true, time.Since(start))
	c.setAvailable(true)
	return &decoded, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("ApiKey %s", c.apiKey))
	}
}

// Close releases pooled transport resources.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}

var _ Store = (*Client)(nil)
