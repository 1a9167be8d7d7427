// Package gateway talks to the publications listing API over HTTP/JSON.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rshade/pubscope/internal/model"
	"github.com/rshade/pubscope/internal/query"
)

const (
	// DefaultBaseURL is the public IceCube publications server.
	DefaultBaseURL = "https://publications.icecube.aq"

	// DefaultTimeout bounds each request.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is requests per second across all calls of one client.
	DefaultRateLimit = 10.0

	// DefaultUserAgent is sent when WithUserAgent is not used.
	DefaultUserAgent = "pubscope"

	// maxBodyBytes caps response bodies.
	maxBodyBytes = 16 << 20
)

// API endpoints.
const (
	PathFilterDefaults = "/api/filter_defaults"
	PathTypes          = "/api/types"
	PathProjects       = "/api/projects"
	PathPublications   = "/api/publications"
	PathCount          = "/api/publications/count"
)

// VocabularyCache stores raw vocabulary responses between runs.
type VocabularyCache interface {
	Load(baseURL, endpoint string) (json.RawMessage, error)
	Store(baseURL, endpoint string, data json.RawMessage) error
}

// Client is a rate-limited client for the publications API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	userAgent  string
	logger     zerolog.Logger
	vocab      VocabularyCache
	minServer  *semver.Version

	versionOnce   sync.Once
	serverVersion atomic.Pointer[semver.Version]
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithRateLimit caps requests per second. Zero or negative disables the limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithVocabularyCache serves type and project vocabularies from cache when possible.
func WithVocabularyCache(vc VocabularyCache) ClientOption {
	return func(c *Client) { c.vocab = vc }
}

// WithMinServerVersion overrides MinServerVersion.
func WithMinServerVersion(v *semver.Version) ClientOption {
	return func(c *Client) {
		if v != nil {
			c.minServer = v
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must use http or https", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), int(DefaultRateLimit)),
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  DefaultUserAgent,
		logger:     zerolog.Nop(),
		minServer:  semver.MustParse(MinServerVersion),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchDefaults returns the server's default filter set in server key order.
func (c *Client) FetchDefaults(ctx context.Context) (model.FilterSet, error) {
	var f model.FilterSet
	if err := c.getJSON(ctx, PathFilterDefaults, "", &f); err != nil {
		return model.FilterSet{}, err
	}
	return f, nil
}

// FetchTypeVocabulary returns publication type codes and labels.
func (c *Client) FetchTypeVocabulary(ctx context.Context) (model.Vocabulary, error) {
	return c.fetchVocabulary(ctx, PathTypes)
}

// FetchProjectVocabulary returns project codes and labels.
func (c *Client) FetchProjectVocabulary(ctx context.Context) (model.Vocabulary, error) {
	return c.fetchVocabulary(ctx, PathProjects)
}

// FetchList returns one page of publications. page is zero-based.
func (c *Client) FetchList(ctx context.Context, filters model.FilterSet, page, limit int) ([]model.Publication, error) {
	var body struct {
		Publications *[]model.Publication `json:"publications"`
	}
	if err := c.getJSON(ctx, PathPublications, query.EncodeParams(filters, page, limit), &body); err != nil {
		return nil, err
	}
	if body.Publications == nil {
		return nil, fmt.Errorf("%w: %s: missing \"publications\"", ErrDecode, PathPublications)
	}
	return *body.Publications, nil
}

// FetchCount returns how many publications match filters.
func (c *Client) FetchCount(ctx context.Context, filters model.FilterSet) (int, error) {
	var body struct {
		Count *int `json:"count"`
	}
	if err := c.getJSON(ctx, PathCount, query.Encode(filters), &body); err != nil {
		return 0, err
	}
	if body.Count == nil || *body.Count < 0 {
		return 0, fmt.Errorf("%w: %s: missing or negative \"count\"", ErrDecode, PathCount)
	}
	return *body.Count, nil
}

func (c *Client) fetchVocabulary(ctx context.Context, path string) (model.Vocabulary, error) {
	var v model.Vocabulary

	if c.vocab != nil {
		if raw, err := c.vocab.Load(c.baseURL, path); err == nil {
			if decodeErr := json.Unmarshal(raw, &v); decodeErr == nil {
				c.logger.Debug().Ctx(ctx).Str("path", path).Msg("vocabulary served from cache")
				return v, nil
			}
		}
	}

	raw, err := c.get(ctx, path, "")
	if err != nil {
		return model.Vocabulary{}, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return model.Vocabulary{}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}

	if c.vocab != nil {
		if err := c.vocab.Store(c.baseURL, path, raw); err != nil {
			c.logger.Debug().Ctx(ctx).Err(err).Str("path", path).Msg("vocabulary cache write failed")
		}
	}
	return v, nil
}

func (c *Client) getJSON(ctx context.Context, path, rawQuery string, v any) error {
	raw, err := c.get(ctx, path, rawQuery)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}

// get issues a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, path, rawQuery string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", ErrNetwork, err)
	}

	target := c.baseURL + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Ctx(ctx).Err(err).Str("method", req.Method).Str("path", path).
			Dur("duration", time.Since(start)).Msg("request failed")
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().Ctx(ctx).
		Str("method", req.Method).
		Str("path", path).
		Str("query", rawQuery).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	c.checkServerVersion(resp.Header.Get("Server"))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrNetwork, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			Path:       path,
			Message:    errorMessage(body),
		}
	}
	return body, nil
}

// errorMessage pulls a human-readable message from an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
