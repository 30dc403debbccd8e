package jhmh

// Package jhmh is the HTTP client for the downstream JHMH data API. The
// portal never owns that data; it health-checks the API before issuing
// sessions and forwards protected requests to it.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhmh/portal-api/internal/metrics"
)

// Config holds configuration for the JHMH API client.
type Config struct {
	// BaseURL is the root of the JHMH API, e.g. "https://api.jhmh.com".
	BaseURL string
	// APIKey is sent on every downstream request.
	APIKey string
	// HealthPath is probed by Health. Defaults to "/health".
	HealthPath string
	// HealthCacheTTL is how long a successful probe is trusted before the
	// next login triggers a fresh one. Defaults to 10s.
	HealthCacheTTL time.Duration
	// HTTPClient is optional; a 15s-timeout client is used when nil.
	HTTPClient *http.Client

	Metrics *metrics.Metrics
}

// Client talks to the JHMH API. Safe for concurrent use.
type Client struct {
	base       *url.URL
	apiKey     string
	healthPath string
	healthTTL  time.Duration
	httpClient *http.Client
	metrics    *metrics.Metrics

	// Concurrent logins share one in-flight probe.
	probes singleflight.Group

	mu         sync.Mutex
	lastHealth time.Time
}

// apiKeyHeader is the header the JHMH API authenticates callers with.
const apiKeyHeader = "X-Api-Key"

// probeTimeout bounds a detached health probe.
const probeTimeout = 10 * time.Second

// New creates a JHMH API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/health"
	}
	healthTTL := cfg.HealthCacheTTL
	if healthTTL <= 0 {
		healthTTL = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		base:       base,
		apiKey:     cfg.APIKey,
		healthPath: healthPath,
		healthTTL:  healthTTL,
		httpClient: httpClient,
		metrics:    cfg.Metrics,
	}, nil
}

// Health reports whether the API can serve requests. A recent successful
// probe is reused; concurrent callers collapse onto one in-flight probe.
// Failures are never cached.
func (c *Client) Health(ctx context.Context) error {
	c.mu.Lock()
	fresh := !c.lastHealth.IsZero() && time.Since(c.lastHealth) < c.healthTTL
	c.mu.Unlock()
	if fresh {
		return nil
	}

	_, err, _ := c.probes.Do("health", func() (any, error) {
		// The probe outlives the caller that started it: collapsed
		// concurrent callers must not fail because the first client
		// disconnected mid-probe.
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), probeTimeout)
		defer cancel()
		return nil, c.probe(probeCtx)
	})
	return err
}

func (c *Client) probe(ctx context.Context) error {
	start := time.Now()
	defer func() {
		c.metrics.ObserveHealthProbe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+c.healthPath, nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health probe: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health probe: status %d", resp.StatusCode)
	}

	c.mu.Lock()
	c.lastHealth = time.Now()
	c.mu.Unlock()
	return nil
}

// Forward proxies an inbound portal request to the JHMH API path and copies
// the response back. apiPath is the escaped path below the API root, so
// percent-encoded separators in resource ids survive the hop. The session
// cookie never crosses the boundary; the API key does, and never the other
// way.
func (c *Client) Forward(w http.ResponseWriter, r *http.Request, apiPath string) {
	unescaped, err := url.PathUnescape(apiPath)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	outURL := *c.base
	outURL.Path = c.base.Path + unescaped
	outURL.RawPath = c.base.EscapedPath() + apiPath
	outURL.RawQuery = r.URL.RawQuery

	req, err := http.NewRequestWithContext(r.Context(), r.Method, outURL.String(), r.Body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	copyForwardHeaders(req.Header, r.Header)
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	defer drainAndClose(resp.Body)

	copyResponseHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, copyErr := io.Copy(w, resp.Body); copyErr != nil {
		// Client went away mid-copy; nothing to recover.
		return
	}
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
}

// forwardedRequestHeaders are the only inbound headers that cross downstream.
var forwardedRequestHeaders = []string{
	"Accept",
	"Accept-Language",
	"Content-Type",
	"Content-Length",
	"If-None-Match",
}

func copyForwardHeaders(dst, src http.Header) {
	for _, name := range forwardedRequestHeaders {
		if values, ok := src[http.CanonicalHeaderKey(name)]; ok {
			dst[http.CanonicalHeaderKey(name)] = values
		}
	}
}

// copiedResponseHeaders are the downstream headers surfaced to the portal client.
var copiedResponseHeaders = []string{
	"Content-Type",
	"Cache-Control",
	"ETag",
	"Content-Disposition",
}

func copyResponseHeaders(dst, src http.Header) {
	for _, name := range copiedResponseHeaders {
		if values, ok := src[http.CanonicalHeaderKey(name)]; ok {
			dst[http.CanonicalHeaderKey(name)] = values
		}
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
