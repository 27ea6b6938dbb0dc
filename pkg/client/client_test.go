package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"snipbox/backend/pkg/client"
	"snipbox/backend/pkg/validation"

	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.HandlerFunc) (*client.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := client.New(srv.URL)
	require.NoError(t, err)
	return c, srv
}

func TestNew_InvalidBaseURL(t *testing.T) {
	_, err := client.New("ftp://example.com")
	require.Error(t, err)

	_, err = client.New("://nope")
	require.Error(t, err)
}

func TestListSubmissions(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/submissions", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("limit"))
		require.Equal(t, "9", r.URL.Query().Get("cursor"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"8","text":"eight","createdAt":"2026-10-16T09:00:08.5Z"},
			{"id":"7","text":"seven","createdAt":"2026-10-16T09:00:07Z"}
		],"nextCursor":"7"}`))
	})

	cursor := int64(9)
	page, err := c.ListSubmissions(context.Background(), client.ListOptions{Limit: 2, Cursor: &cursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, int64(8), page.Items[0].ID)
	require.Equal(t, "eight", page.Items[0].Text)
	require.Equal(t, 500*time.Millisecond, time.Duration(page.Items[0].CreatedAt.Nanosecond()))
	require.NotNil(t, page.NextCursor)
	require.Equal(t, int64(7), *page.NextCursor)
}

func TestListSubmissions_NoQueryWhenUnset(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	page, err := c.ListSubmissions(context.Background(), client.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Nil(t, page.NextCursor)
}

func TestCreateSubmission(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "hello", body["text"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1790000000000000001","text":"hello","createdAt":"2026-10-16T09:00:00Z"}`))
	})

	s, err := c.CreateSubmission(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, int64(1790000000000000001), s.ID)
	require.Equal(t, "hello", s.Text)
}

func TestCreateSubmission_LocalValidation(t *testing.T) {
	var hits atomic.Int32
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	for _, text := range []string{"", "   ", strings.Repeat("x", validation.MaxLength+1)} {
		_, err := c.CreateSubmission(context.Background(), text)
		require.Error(t, err)
		require.Equal(t, client.KindInvalid, client.Classify(err))
	}
	require.Zero(t, hits.Load())
}

func TestCreateSubmission_RateLimited(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.Header().Set("X-RateLimit-Limit", "60")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"too many requests","message":"rate limit exceeded, please try again later","limit":60,"remaining":0,"resetAt":"2026-10-16T09:01:00Z"}`))
	})

	_, err := c.CreateSubmission(context.Background(), "hello")
	require.ErrorIs(t, err, client.ErrRateLimited)

	var rl *client.RateLimitError
	require.ErrorAs(t, err, &rl)
	require.Equal(t, 60, rl.Limit)
	require.Equal(t, 0, rl.Remaining)
	require.Equal(t, 42*time.Second, rl.RetryAfter)
	require.Equal(t, time.Date(2026, 10, 16, 9, 1, 0, 0, time.UTC), rl.ResetAt.UTC())
	require.Equal(t, client.KindRateLimited, client.Classify(err))
}

func TestCreateSubmission_Rejected(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   client.Kind
	}{
		{http.StatusBadRequest, `{"error":"invalid request","message":"invalid text: input cannot be empty"}`, client.KindInvalid},
		{http.StatusServiceUnavailable, `{"error":"service unavailable"}`, client.KindRejected},
		{http.StatusInternalServerError, `not json`, client.KindRejected},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := c.CreateSubmission(context.Background(), "hello")
			var apiErr *client.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tc.status, apiErr.StatusCode)
			require.NotEmpty(t, apiErr.Code)
			require.Equal(t, tc.kind, client.Classify(err))
		})
	}
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := client.New(url)
	require.NoError(t, err)

	_, err = c.ListSubmissions(context.Background(), client.ListOptions{})
	require.ErrorIs(t, err, client.ErrUnreachable)
	require.Equal(t, client.KindUnreachable, client.Classify(err))
}

func TestTimeoutIsUnreachable(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	c, err := client.New(srv.URL, client.WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.ListSubmissions(context.Background(), client.ListOptions{})
	require.ErrorIs(t, err, client.ErrUnreachable)
}

func TestWithTimeout_LeavesCallerClientAlone(t *testing.T) {
	hc := &http.Client{Timeout: time.Minute}
	_, err := client.New("http://localhost:8080", client.WithHTTPClient(hc), client.WithTimeout(time.Second))
	require.NoError(t, err)
	require.Equal(t, time.Minute, hc.Timeout)
}

func TestWithProxy(t *testing.T) {
	var proxiedHost atomic.Value
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxiedHost.Store(r.URL.Host)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	t.Cleanup(proxy.Close)

	callerTransport := &http.Transport{MaxIdleConns: 7}
	hc := &http.Client{Transport: callerTransport}
	c, err := client.New("http://snipbox.invalid", client.WithHTTPClient(hc), client.WithProxy(proxy.URL))
	require.NoError(t, err)

	page, err := c.ListSubmissions(context.Background(), client.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, "snipbox.invalid", proxiedHost.Load())

	require.Same(t, callerTransport, hc.Transport)
	require.Nil(t, callerTransport.Proxy)
}

func TestCallerCancellation(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ListSubmissions(ctx, client.ListOptions{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotErrorIs(t, err, client.ErrUnreachable)
}

func TestHealth(t *testing.T) {
	c, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unhealthy","uptime":1.5,"timestamp":"2026-10-16T09:00:00Z","databaseConnected":false}`))
	})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "unhealthy", h.Status)
	require.False(t, h.DatabaseConnected)
	require.Equal(t, 1500*time.Millisecond, h.Uptime)
}

func TestWithRateLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, client.WithRateLimit(1, 1))
	require.NoError(t, err)

	_, err = c.ListSubmissions(context.Background(), client.ListOptions{})
	require.NoError(t, err)

	// The bucket is empty; a short deadline cannot wait out the next token.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListSubmissions(ctx, client.ListOptions{})
	require.Error(t, err)
	require.Equal(t, int32(1), hits.Load())
}

func TestClassify(t *testing.T) {
	require.Equal(t, client.KindNone, client.Classify(nil))
	require.Equal(t, client.KindUnknown, client.Classify(errors.New("boom")))
	require.Equal(t, "unreachable", client.KindUnreachable.String())
	require.Equal(t, "rate_limited", client.KindRateLimited.String())
}
