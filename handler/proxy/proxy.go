// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package proxy forwards requests to an upstream origin through a
// retrying HTTP client behind a circuit breaker.
package proxy

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/logging"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type options struct {
	retryMax  int
	timeout   time.Duration
	tripCount uint32
	logger    *zap.Logger
}

// Option configures a Handler.
type Option func(*options)

// RetryMax sets the maximum number of upstream retries per request.
func RetryMax(n int) Option {
	return func(o *options) {
		o.retryMax = n
	}
}

// Timeout bounds a single upstream exchange.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// TripCount determines the number of consecutive upstream failures
// required to trip the circuit.
func TripCount(n uint32) Option {
	return func(o *options) {
		o.tripCount = n
	}
}

// BreakerLogger sets the logger reporting circuit state changes.
func BreakerLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Handler is a bootable responder proxying requests to one upstream.
type Handler struct {
	upstream string
	opts     options

	base    *url.URL
	client  *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
}

// New returns a Handler forwarding to the given upstream base URL.
func New(upstream string, opts ...Option) *Handler {
	o := options{
		retryMax:  2,
		timeout:   30 * time.Second,
		tripCount: 5,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Handler{
		upstream: upstream,
		opts:     o,
	}
}

// Boot implements the aerys.Bootable interface. It validates the
// upstream URL and builds the client stack; the handler itself is
// directly invocable, so an empty result resolves to it.
func (h *Handler) Boot(ctx context.Context, srv aerys.ServerHandle, log *logging.Logger) (aerys.BootResult, error) {
	base, err := url.Parse(h.upstream)
	if err != nil {
		return aerys.BootResult{}, fmt.Errorf("invalid proxy upstream %q: %w", h.upstream, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" || base.Host == "" {
		return aerys.BootResult{}, fmt.Errorf("proxy upstream %q must be an absolute http(s) URL", h.upstream)
	}
	h.base = base

	client := retryablehttp.NewClient()
	client.RetryMax = h.opts.retryMax
	client.HTTPClient.Timeout = h.opts.timeout
	client.Logger = nil
	h.client = client

	breakerLog := h.opts.logger
	h.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "proxy:" + base.Host,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= h.opts.tripCount
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerLog.Info("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	log.Debug("proxying requests", slog.String("upstream", h.upstream))
	return aerys.BootResult{}, nil
}

// Respond implements the aerys.Responder interface. Upstream refusals,
// including an open circuit, commit a 502 so the request never falls
// through to a later responder with its body half-consumed.
func (h *Handler) Respond(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
	out, err := h.outboundRequest(ctx, req)
	if err != nil {
		return badGateway(res)
	}

	result, err := h.breaker.Execute(func() (any, error) {
		return h.client.Do(out)
	})
	if err != nil {
		return badGateway(res)
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()

	res.SetStatus(resp.StatusCode)
	for name, values := range resp.Header {
		if hopByHop(name) {
			continue
		}
		for _, value := range values {
			res.SetHeader(name, value)
		}
	}
	if _, err := io.Copy(res, resp.Body); err != nil {
		return err
	}
	return res.End()
}

func (h *Handler) outboundRequest(ctx context.Context, req *aerys.Request) (*retryablehttp.Request, error) {
	target := h.base.ResolveReference(&url.URL{Path: requestPath(req.URI), RawQuery: requestQuery(req.URI)})

	out, err := retryablehttp.NewRequestWithContext(ctx, req.Method, target.String(), req.Body)
	if err != nil {
		return nil, err
	}
	for name, values := range req.Header {
		if hopByHop(name) {
			continue
		}
		for _, value := range values {
			out.Header.Add(name, value)
		}
	}
	out.Header.Set("X-Forwarded-For", req.RemoteAddr)
	out.Header.Set("X-Forwarded-Host", req.Host)
	return out, nil
}

func badGateway(res aerys.ResponseWriter) error {
	res.SetStatus(http.StatusBadGateway)
	res.SetReason("Bad Gateway")
	return res.End()
}

func requestPath(uri string) string {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		return uri[:i]
	}
	return uri
}

func requestQuery(uri string) string {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		return uri[i+1:]
	}
	return ""
}

var hopByHopHeaders = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

func hopByHop(name string) bool {
	_, ok := hopByHopHeaders[http.CanonicalHeaderKey(name)]
	return ok
}
