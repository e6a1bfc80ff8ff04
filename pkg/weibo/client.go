package weibo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"weibolens/pkg/errors"
	"weibolens/pkg/logger"
)

// Client is the upstream fetch contract the crawl loop runs against. The
// HTTP implementation talks to the live endpoint; the mock implementation is
// selected by configuration for development and tests.
type Client interface {
	// FetchUserInfo fetches profile metadata for a user.
	FetchUserInfo(ctx context.Context, userID string) (*UserInfo, error)

	// FetchUserPage fetches one page of a user's timeline.
	FetchUserPage(ctx context.Context, userID string, page int) (*Envelope, error)

	// FetchSearchPage fetches one page of keyword search results.
	FetchSearchPage(ctx context.Context, keyword string, page int) (*Envelope, error)

	// FetchLongText fetches the full text of a truncated long post.
	FetchLongText(ctx context.Context, postID string) (string, error)
}

// statusPattern extracts the embedded status JSON from a detail page.
var statusPattern = regexp.MustCompile(`"status":(.*?),"ok"`)

// HTTPClient is the live implementation of Client.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	limiter    *rate.Limiter
	logger     logger.Logger
}

// ClientOptions configures the HTTP client.
type ClientOptions struct {
	BaseURL           string
	UserAgent         string
	Cookie            string
	Timeout           time.Duration
	RequestsPerMinute int
}

// NewHTTPClient creates a live client. The per-minute cap is a safety net on
// top of the crawl loop's courtesy delays.
func NewHTTPClient(opts ClientOptions, log logger.Logger) *HTTPClient {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 30
	}

	headers := map[string]string{
		"Accept": "application/json, text/plain, */*",
	}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}
	if opts.Cookie != "" {
		headers["Cookie"] = opts.Cookie
	}

	return &HTTPClient{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    opts.BaseURL,
		headers:    headers,
		limiter:    rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1),
		logger:     log,
	}
}

// SetHeader sets a custom header for the client.
func (c *HTTPClient) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs a GET with the configured headers after passing the
// request-rate gate.
func (c *HTTPClient) doRequest(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "rate gate interrupted: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Newf(errors.ErrorTypeNetwork, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &errors.Error{
			Type:    errors.TypeForStatusCode(resp.StatusCode),
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}

	return resp, nil
}

// getEnvelope performs a GET and decodes the standard response envelope.
func (c *HTTPClient) getEnvelope(ctx context.Context, url string) (*Envelope, error) {
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "failed to read response body: %v", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, errors.Newf(errors.ErrorTypeParsing, "failed to parse JSON: %v", err)
	}

	return &envelope, nil
}

// FetchUserInfo fetches profile metadata for the given user.
func (c *HTTPClient) FetchUserInfo(ctx context.Context, userID string) (*UserInfo, error) {
	envelope, err := c.getEnvelope(ctx, ProfileURL(c.baseURL, userID))
	if err != nil {
		return nil, err
	}
	if envelope.Ok != 1 {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "profile lookup rejected for user %s", userID)
	}
	if envelope.Data.UserInfo.ScreenName == "" && envelope.Data.UserInfo.ID == 0 {
		return nil, errors.Newf(errors.ErrorTypeParsing, "profile response missing user info for %s", userID)
	}
	info := envelope.Data.UserInfo
	return &info, nil
}

// FetchUserPage fetches one page of the user's timeline.
func (c *HTTPClient) FetchUserPage(ctx context.Context, userID string, page int) (*Envelope, error) {
	return c.getEnvelope(ctx, TimelineURL(c.baseURL, userID, page))
}

// FetchSearchPage fetches one page of keyword search results.
func (c *HTTPClient) FetchSearchPage(ctx context.Context, keyword string, page int) (*Envelope, error) {
	return c.getEnvelope(ctx, SearchURL(c.baseURL, keyword, page))
}

// FetchLongText fetches the detail page of a long post and extracts the full
// text from the embedded status JSON.
func (c *HTTPClient) FetchLongText(ctx context.Context, postID string) (string, error) {
	resp, err := c.doRequest(ctx, DetailURL(c.baseURL, postID))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Newf(errors.ErrorTypeNetwork, "failed to read detail page: %v", err)
	}

	match := statusPattern.FindSubmatch(body)
	if match == nil {
		return "", errors.Newf(errors.ErrorTypeParsing, "no status JSON in detail page for post %s", postID)
	}

	var status struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(match[1], &status); err != nil {
		return "", errors.Newf(errors.ErrorTypeParsing, "failed to parse detail status: %v", err)
	}

	return status.Text, nil
}
