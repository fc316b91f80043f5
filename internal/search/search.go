// Package search finds candidate external links for an expression using the Jina search API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tliron/commonlog"
)

// DefaultEndpoint is the Jina search API.
const DefaultEndpoint = "https://s.jina.ai"

// DefaultLimit is the number of candidates kept per expression.
const DefaultLimit = 3

var log = commonlog.GetLogger("scribe.search")

// Result is a single search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content,omitempty"`
	Description string `json:"description"`
}

// response mirrors the Jina search payload.
type response struct {
	Code   int      `json:"code"`
	Status int      `json:"status"`
	Data   []Result `json:"data"`
}

// FetchError provides detailed error information for search failures
type FetchError struct {
	URL        string
	StatusCode int
	Message    string
	NeedsAuth  bool
	Err        error
}

func (e *FetchError) Error() string {
	if e.NeedsAuth {
		return fmt.Sprintf("%s: %s (authentication required)", e.URL, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Cache stores search results by expression.
type Cache interface {
	Get(expression string) ([]Result, bool, error)
	Put(expression string, results []Result) error
}

// Searcher returns candidate links for an expression.
type Searcher interface {
	Search(ctx context.Context, expression string) ([]Result, error)
}

// Client queries the search API.
type Client struct {
	endpoint string
	apiKey   string
	limit    int
	client   *http.Client
	cache    Cache
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = strings.TrimSuffix(endpoint, "/") }
}

// WithLimit sets the number of results kept per expression.
func WithLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithCache enables result caching.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a search client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		limit:    DefaultLimit,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns up to the configured limit of results for expression.
func (c *Client) Search(ctx context.Context, expression string) ([]Result, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("expression is required")
	}

	if c.cache != nil {
		results, ok, err := c.cache.Get(expression)
		if err != nil {
			log.Warningf("cache lookup for %q failed: %v", expression, err)
		} else if ok {
			log.Debugf("cache hit for %q", expression)
			return c.truncate(results), nil
		}
	}

	results, err := c.fetch(ctx, expression)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(expression, results); err != nil {
			log.Warningf("cache store for %q failed: %v", expression, err)
		}
	}
	return c.truncate(results), nil
}

func (c *Client) truncate(results []Result) []Result {
	if len(results) > c.limit {
		return results[:c.limit]
	}
	return results
}

func (c *Client) fetch(ctx context.Context, expression string) ([]Result, error) {
	searchURL := c.endpoint + "/" + url.PathEscape(expression)

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &FetchError{
			URL:     searchURL,
			Err:     err,
			Message: "failed to fetch search results",
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusPaymentRequired ||
		resp.StatusCode == http.StatusForbidden {
		return nil, &FetchError{
			URL:        searchURL,
			StatusCode: resp.StatusCode,
			Message:    "authentication required",
			NeedsAuth:  true,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			URL:        searchURL,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &FetchError{
			URL:     searchURL,
			Err:     err,
			Message: "invalid search response",
		}
	}

	log.Debugf("search %q returned %d results", expression, len(payload.Data))
	return payload.Data, nil
}
