package giantbomb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"gbgrab/cache"
)

const (
	// DefaultRateLimit is the minimum spacing between request starts.
	DefaultRateLimit = time.Second

	// defaultPollInterval is how often a waiting caller re-checks the
	// in-flight flag.
	defaultPollInterval = 50 * time.Millisecond

	// pageLimit is the maximum page size the API allows.
	pageLimit = 100
)

// Client wraps the Giant Bomb API with rate limiting and response
// caching. At most one request is in flight at any time.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
	store      *cache.Cache
	group      singleflight.Group

	rateLimit    time.Duration
	pollInterval time.Duration

	// mu guards the in-flight flag and the completion timestamp of
	// the previous call.
	mu       sync.Mutex
	busy     bool
	lastDone time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit sets the minimum spacing between outbound requests.
func WithRateLimit(limit time.Duration) Option {
	return func(c *Client) {
		if limit >= 0 {
			c.rateLimit = limit
		}
	}
}

// WithPollInterval sets how often waiting callers re-check the
// in-flight flag.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// NewClient creates a new Giant Bomb client. The cache store may be
// nil, in which case every fetch goes to the network.
func NewClient(baseURL, apiKey string, store *cache.Cache, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		store:        store,
		rateLimit:    DefaultRateLimit,
		pollInterval: defaultPollInterval,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// signature is the cache key for a request: path plus sorted query
// parameters, with the credential excluded.
func (c *Client) signature(path string, params url.Values) string {
	normalized := url.Values{}
	for key, values := range params {
		if key == "api_key" {
			continue
		}
		normalized[key] = values
	}
	normalized.Set("format", "json")

	return fmt.Sprintf("%s%s?%s", c.baseURL, path, normalized.Encode())
}

// get performs a cached, rate-limited GET against an API endpoint.
func (c *Client) get(ctx context.Context, path string, params url.Values) (*Response, error) {
	sig := c.signature(path, params)

	// First cache check, before waiting for a turn.
	if resp, ok := c.cached(sig); ok {
		return resp, nil
	}

	result, err, _ := c.group.Do(sig, func() (any, error) {
		return c.fetch(ctx, sig, path, params)
	})
	if err != nil {
		return nil, err
	}

	return result.(*Response), nil
}

// fetch acquires the request turn and performs the HTTP call.
func (c *Client) fetch(ctx context.Context, sig, path string, params url.Values) (*Response, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, &TransportError{Signature: sig, Err: err}
	}

	// Second cache check: another logical request for the same
	// signature may have completed while this one waited.
	if resp, ok := c.cached(sig); ok {
		c.release()
		return resp, nil
	}

	requestURL := c.requestURL(path, params)
	c.logger.Debug().Str("signature", sig).Msg("Making API request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		c.release()
		return nil, &TransportError{Signature: sig, Err: err}
	}

	httpResp, err := c.httpClient.Do(req)
	c.release()
	if err != nil {
		return nil, &TransportError{Signature: sig, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, &TransportError{
			Signature: sig,
			Err:       fmt.Errorf("unexpected status code: %d", httpResp.StatusCode),
		}
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Signature: sig, Err: err}
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResponse, sig)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEmptyResponse, sig, err)
	}

	if resp.StatusCode != statusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    resp.Error,
			Signature:  sig,
		}
	}

	if c.store != nil {
		c.store.Put(sig, json.RawMessage(body))
	}

	return &resp, nil
}

// acquire waits for the in-flight flag to clear and for the rate-limit
// spacing to elapse, then claims the turn.
func (c *Client) acquire(ctx context.Context) error {
	for {
		c.mu.Lock()
		now := time.Now()
		nextAllowed := c.lastDone.Add(c.rateLimit)
		if !c.busy && !now.Before(nextAllowed) {
			c.busy = true
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// release records the completion time and clears the in-flight flag.
func (c *Client) release() {
	c.mu.Lock()
	c.lastDone = time.Now()
	c.busy = false
	c.mu.Unlock()
}

// cached looks up a signature in the response store.
func (c *Client) cached(sig string) (*Response, bool) {
	if c.store == nil {
		return nil, false
	}

	raw, ok := c.store.Get(sig)
	if !ok {
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Warn().Str("signature", sig).Msg("Discarding undecodable cached response")
		return nil, false
	}

	c.logger.Debug().Str("signature", sig).Msg("Cache hit")
	return &resp, true
}

// requestURL builds the full URL including the credential. It must
// never be logged.
func (c *Client) requestURL(path string, params url.Values) string {
	full := url.Values{}
	for key, values := range params {
		full[key] = values
	}
	full.Set("api_key", c.apiKey)
	full.Set("format", "json")

	return fmt.Sprintf("%s%s?%s", c.baseURL, path, full.Encode())
}

// FetchItem retrieves a single-resource endpoint.
func (c *Client) FetchItem(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.get(ctx, path, params)
}

// FetchList retrieves one page of a list endpoint.
func (c *Client) FetchList(ctx context.Context, path string, params url.Values) (*Response, error) {
	return c.get(ctx, path, params)
}

// TestConnection verifies the credential against a cheap endpoint.
func (c *Client) TestConnection(ctx context.Context) error {
	params := url.Values{}
	params.Set("limit", "1")

	_, err := c.FetchList(ctx, "/videos/", params)
	return err
}
