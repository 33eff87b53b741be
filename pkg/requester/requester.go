// Package requester is the probe transport: a pooled HTTP client with rate
// limiting and retry, plus a raw TCP sender for request templates that must
// reach the target byte-exact. Submitters build requests; this package
// moves them.
package requester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/fuucckk/Fenjing/pkg/defaults"
	"github.com/fuucckk/Fenjing/pkg/retry"
)

// Response is the part of an HTTP exchange the engine inspects. Bodies are
// fully read and capped, so a Response is plain data with no lifetime.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// Requester sends a prepared request and captures the response.
type Requester interface {
	Do(ctx context.Context, req *http.Request) (*Response, error)
}

// HTTP is the standard Requester. Safe for concurrent use.
type HTTP struct {
	client    *http.Client
	limiter   *rate.Limiter
	retry     retry.Config
	userAgent string
	extra     http.Header
}

// Option configures an HTTP requester.
type Option func(*HTTP)

// WithInterval enforces a minimum spacing between requests. Zero disables
// rate limiting.
func WithInterval(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			h.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithUserAgent overrides the default user agent.
func WithUserAgent(ua string) Option {
	return func(h *HTTP) {
		if ua != "" {
			h.userAgent = ua
		}
	}
}

// WithHeader adds a header to every request that does not already set it.
func WithHeader(key, value string) Option {
	return func(h *HTTP) {
		if h.extra == nil {
			h.extra = make(http.Header)
		}
		h.extra.Add(key, value)
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(h *HTTP) { h.retry = cfg }
}

// WithClient substitutes the underlying client, for proxies or tests.
func WithClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// NewHTTP builds a requester over the shared pooled client.
func NewHTTP(opts ...Option) *HTTP {
	h := &HTTP{
		client:    defaultClient(),
		retry:     retry.DefaultConfig(),
		userAgent: defaults.UAChrome,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Do sends req, waiting out the rate limiter first and retrying transport
// failures. Any completed exchange is a success at this layer: a WAF block
// page is a meaningful response, not an error.
func (h *HTTP) Do(ctx context.Context, req *http.Request) (*Response, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	for key, values := range h.extra {
		if req.Header.Get(key) == "" {
			for _, v := range values {
				req.Header.Add(key, v)
			}
		}
	}

	var out *Response
	err := retry.Do(ctx, h.retry, func() error {
		// Clone per attempt: a retried request needs a fresh body reader.
		attempt := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return retry.Stop(err)
			}
			attempt.Body = body
		}
		resp, err := h.client.Do(attempt)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, defaults.MaxBodyBytes))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		out = &Response{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       string(body),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("requester: %s %s: %w", req.Method, req.URL, err)
	}
	return out, nil
}
