// Package client is a typed HTTP client for the submissions API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"snipbox/backend/pkg/validation"
)

const DefaultTimeout = 5 * time.Second

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

type Submission struct {
	ID        int64
	Text      string
	CreatedAt time.Time
}

type Page struct {
	Items      []Submission
	NextCursor *int64
}

// ListOptions selects a page. Zero Limit lets the server pick its default.
type ListOptions struct {
	Limit  int
	Cursor *int64
}

type HealthStatus struct {
	Status            string
	Uptime            time.Duration
	DatabaseConnected bool
}

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	// ownsClient is false while httpClient is the caller's; options copy it before changing it.
	ownsClient bool
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Timeout is left as given and later
// options change a copy, never hc itself.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.ownsClient = false
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.ownHTTPClient()
		c.httpClient.Timeout = d
	}
}

// WithProxy routes requests through an HTTP proxy. Unparseable URLs are ignored.
// The transport is a clone of the current *http.Transport (http.DefaultTransport otherwise)
// so its dial, TLS and HTTP/2 settings carry over.
func WithProxy(proxyURL string) Option {
	return func(c *Client) {
		if proxyURL == "" {
			return
		}
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return
		}
		base, ok := c.httpClient.Transport.(*http.Transport)
		if !ok || base == nil {
			base = http.DefaultTransport.(*http.Transport)
		}
		transport := base.Clone()
		transport.Proxy = http.ProxyURL(parsed)

		c.ownHTTPClient()
		c.httpClient.Transport = transport
	}
}

func (c *Client) ownHTTPClient() {
	if c.ownsClient {
		return
	}
	cp := *c.httpClient
	c.httpClient = &cp
	c.ownsClient = true
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		ownsClient: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type submissionDTO struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type pageDTO struct {
	Items      []submissionDTO `json:"items"`
	NextCursor *string         `json:"nextCursor"`
}

type errorDTO struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"resetAt"`
}

type healthDTO struct {
	Status            string  `json:"status"`
	Uptime            float64 `json:"uptime"`
	DatabaseConnected bool    `json:"databaseConnected"`
}

func (c *Client) ListSubmissions(ctx context.Context, opts ListOptions) (Page, error) {
	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != nil {
		q.Set("cursor", strconv.FormatInt(*opts.Cursor, 10))
	}

	var dto pageDTO
	if err := c.do(ctx, http.MethodGet, "/api/submissions", q, nil, http.StatusOK, &dto); err != nil {
		return Page{}, err
	}

	page := Page{Items: make([]Submission, 0, len(dto.Items))}
	for _, item := range dto.Items {
		s, err := item.toSubmission()
		if err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, s)
	}
	if dto.NextCursor != nil {
		next, err := strconv.ParseInt(*dto.NextCursor, 10, 64)
		if err != nil {
			return Page{}, fmt.Errorf("decode next cursor: %w", err)
		}
		page.NextCursor = &next
	}
	return page, nil
}

// CreateSubmission validates text locally and returns the validation error without a
// network call when it fails.
func (c *Client) CreateSubmission(ctx context.Context, text string) (Submission, error) {
	if err := validation.Text(text); err != nil {
		return Submission{}, err
	}
	var dto submissionDTO
	body := map[string]string{"text": text}
	if err := c.do(ctx, http.MethodPost, "/api/submissions", nil, body, http.StatusCreated, &dto); err != nil {
		return Submission{}, err
	}
	return dto.toSubmission()
}

// Health reports server health. A 503 with a health body is a result, not an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	resp, err := c.send(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthStatus{}, decodeError(resp)
	}
	var dto healthDTO
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return HealthStatus{}, fmt.Errorf("decode health: %w", err)
	}
	return HealthStatus{
		Status:            dto.Status,
		Uptime:            time.Duration(dto.Uptime * float64(time.Second)),
		DatabaseConnected: dto.DatabaseConnected,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, want int, out any) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Caller cancellation is not the server's fault.
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	var dto errorDTO
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&dto)

	if resp.StatusCode == http.StatusTooManyRequests {
		rl := &RateLimitError{Limit: dto.Limit, Remaining: dto.Remaining}
		if t, err := time.Parse(time.RFC3339, dto.ResetAt); err == nil {
			rl.ResetAt = t
		}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			rl.RetryAfter = time.Duration(secs) * time.Second
		}
		if rl.Limit == 0 {
			rl.Limit, _ = strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
		}
		return rl
	}

	code := dto.Error
	if code == "" {
		code = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Code: code, Message: dto.Message}
}

func (d submissionDTO) toSubmission() (Submission, error) {
	id, err := strconv.ParseInt(d.ID, 10, 64)
	if err != nil {
		return Submission{}, fmt.Errorf("decode submission id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, d.CreatedAt)
	if err != nil {
		return Submission{}, fmt.Errorf("decode submission time: %w", err)
	}
	return Submission{ID: id, Text: d.Text, CreatedAt: createdAt}, nil
}
