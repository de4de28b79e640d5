// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package dispatch composes zero or more request responders into the
// single responder every virtual host owns.
package dispatch

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/logging"
)

// GenericResponseHeader marks responses synthesized by the server
// itself rather than an application responder.
const GenericResponseHeader = "Aerys-Generic-Response"

// shutdownReason is the fixed reason phrase of the shutdown
// short-circuit response.
const shutdownReason = "Server shutting down"

// successPage is served by the fallback responder of hosts configured
// without any application responder.
const successPage = "<html><body><h1>It works!</h1></body></html>"

// Loader registers bootable components against the running server.
// The boot package's Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, component aerys.Bootable) (aerys.BootResult, error)
}

// Compose merges the given responders into exactly one.
//
// Zero responders yield the default success responder. A single
// responder is returned unchanged, with no wrapping overhead. Two or
// more are captured by a synthesized stateful responder which is
// registered through the loader, so its shutdown observer is attached
// to the server before it ever serves a request.
func Compose(ctx context.Context, responders []aerys.Responder, loader Loader) (aerys.Responder, error) {
	switch len(responders) {
	case 0:
		return aerys.ResponderFunc(respondDefault), nil
	case 1:
		return responders[0], nil
	}

	m := &multiResponder{
		responders: append([]aerys.Responder(nil), responders...),
	}
	res, err := loader.Load(ctx, m)
	if err != nil {
		return nil, err
	}
	return res.Responder, nil
}

// respondDefault unconditionally completes the response with a fixed
// success page. An empty host is a valid, if unusual, configuration.
func respondDefault(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
	res.SetStatus(http.StatusOK)
	res.SetHeader("Content-Type", "text/html; charset=utf-8")
	if _, err := res.Write([]byte(successPage)); err != nil {
		return err
	}
	return res.End()
}

// multiResponder chains independently authored responders into a
// fallback sequence: the first responder to commit a response wins,
// every responder gets a chance to run during normal operation, and
// in-flight requests degrade to a 503 once the server starts stopping.
//
// It is simultaneously a Responder, a Bootable and a lifecycle
// Observer; booting it attaches the observer.
type multiResponder struct {
	responders []aerys.Responder
	stopping   atomic.Bool
}

// Boot implements the aerys.Bootable interface.
func (m *multiResponder) Boot(ctx context.Context, srv aerys.ServerHandle, log *logging.Logger) (aerys.BootResult, error) {
	srv.Attach(m)
	return aerys.BootResult{}, nil
}

// Update implements the aerys.Observer interface. It never blocks.
func (m *multiResponder) Update(ctx context.Context, srv aerys.ServerHandle) error {
	if srv.State() == aerys.Stopping {
		m.stopping.Store(true)
	}
	return nil
}

// Respond implements the aerys.Responder interface.
func (m *multiResponder) Respond(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
	for _, r := range m.responders {
		err := r.Respond(ctx, req, res)
		if err != nil {
			return err
		}

		// A committed response must never reach a later responder.
		if res.Started() {
			return nil
		}

		if m.stopping.Load() {
			res.SetStatus(http.StatusServiceUnavailable)
			res.SetReason(shutdownReason)
			res.SetHeader(GenericResponseHeader, "enable")
			return res.End()
		}
	}
	return nil
}
