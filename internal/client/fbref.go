package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"efl_xg/ingestion/internal/metrics"
	"efl_xg/ingestion/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://fbref.com"

// Config holds FBRef client settings
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
	RetryDelay        time.Duration
}

// FetchError reports a failed page download. StatusCode is 0 for network errors.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the request may succeed if repeated
func (e *FetchError) Retryable() bool {
	switch e.StatusCode {
	case 0, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Client is the FBRef fixtures page client
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewClient creates a new FBRef client
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &Client{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: max(cfg.MaxRetries, 0),
		retryDelay: retryDelay,
		logger:     logger.With().Str("component", "fbref").Logger(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// FixturesURL builds the scores-and-fixtures page URL for a league season,
// e.g. /en/comps/9/2024-2025/schedule/2024-2025-Premier-League-Scores-and-Fixtures
func (c *Client) FixturesURL(league models.League, season int) (string, error) {
	id, ok := league.FBRefID()
	if !ok {
		return "", fmt.Errorf("unknown league %q", league)
	}
	span := fmt.Sprintf("%d-%d", season, season+1)
	return fmt.Sprintf("%s/en/comps/%d/%s/schedule/%s-%s-Scores-and-Fixtures",
		c.baseURL, id, span, span, league.Slug()), nil
}

// FetchFixtures downloads and extracts the fixtures table for one league season
func (c *Client) FetchFixtures(ctx context.Context, league models.League, season int) ([]models.RawRow, error) {
	url, err := c.FixturesURL(league, season)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	body, err := c.get(ctx, url)
	if err != nil {
		metrics.RecordFetch(league.String(), "error", time.Since(start).Seconds())
		return nil, err
	}
	metrics.RecordFetch(league.String(), "success", time.Since(start).Seconds())

	rows, err := ParseFixturesTable(bytes.NewReader(body), league, season)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("url", url).
		Int("rows", len(rows)).
		Msg("Successfully scraped fixtures")

	return rows, nil
}

// get performs a GET request with retry logic and rate limiting
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr *FetchError
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			c.logger.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying request after backoff")
			metrics.RecordRetry()

			select {
			case <-ctx.Done():
				return nil, &FetchError{URL: url, Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{URL: url, Err: err}
		}

		body, err := c.do(ctx, url, attempt)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if ctx.Err() != nil || !err.Retryable() {
			return nil, err
		}
		c.logger.Warn().
			Err(err).
			Str("url", url).
			Int("attempt", attempt+1).
			Msg("Received retryable error, will retry")
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url string, attempt int) ([]byte, *FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "text/html")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().
		Str("url", url).
		Int("attempt", attempt+1).
		Msg("Making request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", http.StatusText(resp.StatusCode))}
	}

	return body, nil
}
