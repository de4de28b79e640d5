// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package metrics instruments a host's request pipeline with
// prometheus counters.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/logging"

	"github.com/prometheus/client_golang/prometheus"
)

// Middleware counts requests and observes pipeline latency per host.
// It is a Bootable so its collectors register before any request runs.
type Middleware struct {
	registerer prometheus.Registerer

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMiddleware returns a Middleware registering against reg, or the
// default registerer when reg is nil.
func NewMiddleware(reg prometheus.Registerer) *Middleware {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Middleware{
		registerer: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aerys",
			Name:      "requests_total",
			Help:      "Requests handled, by host and response status.",
		}, []string{"host", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aerys",
			Name:      "request_duration_seconds",
			Help:      "Request pipeline latency, by host.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
	}
}

// Boot implements the aerys.Bootable interface.
func (m *Middleware) Boot(ctx context.Context, srv aerys.ServerHandle, log *logging.Logger) (aerys.BootResult, error) {
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		err := m.registerer.Register(c)
		if err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return aerys.BootResult{}, err
			}
		}
	}
	return aerys.BootResult{Middleware: m}, nil
}

// Process implements the aerys.Middleware interface.
func (m *Middleware) Process(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter, next aerys.Responder) error {
	start := time.Now()
	err := next.Respond(ctx, req, res)
	m.duration.WithLabelValues(req.Host).Observe(time.Since(start).Seconds())
	m.requests.WithLabelValues(req.Host, statusLabel(res)).Inc()
	return err
}

// statusLabel reads the committed status when the response surface
// exposes one; uncommitted responses count under "none".
func statusLabel(res aerys.ResponseWriter) string {
	if !res.Started() {
		return "none"
	}
	if sr, ok := res.(interface{ Status() int }); ok {
		return strconv.Itoa(sr.Status())
	}
	return "unknown"
}
