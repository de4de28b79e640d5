// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package aerys defines the core contracts of the aerys HTTP server:
// the request/response surface handlers program against, the Bootable
// initialization contract, middleware collection, host definitions and
// the server lifecycle observation interface. The boot, dispatch and
// runtime packages compose these contracts into a running server.
package aerys

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"

	"github.com/tyx/aerys/logging"
)

// Request carries the minimal per-request signals the dispatch pipeline
// reacts to. It is constructed once per inbound request by the runtime
// bridge and shared, read-only, by every responder in the chain.
type Request struct {
	Method     string
	URI        string
	Proto      string
	Header     http.Header
	Host       string
	RemoteAddr string
	Body       io.Reader
}

// ResponseWriter is the response surface exposed to responders.
//
// Status, reason and headers are buffered until the first Write or End
// call commits the response. Once Started reports true the response is
// committed and later responders in a composed chain are never invoked.
type ResponseWriter interface {
	// Started reports whether the response has been committed.
	Started() bool

	SetStatus(code int)
	SetReason(reason string)
	SetHeader(name, value string)

	// Write commits the response head, if it hasn't been already,
	// and appends p to the response body.
	Write(p []byte) (int, error)

	// End commits and completes the response.
	End() error
}

// Responder handles a single request. Implementations may suspend on the
// context but must never retain req or res beyond the call.
type Responder interface {
	Respond(ctx context.Context, req *Request, res ResponseWriter) error
}

// ResponderFunc is a functional implementation of the Responder interface.
type ResponderFunc func(context.Context, *Request, ResponseWriter) error

// Respond implements the Responder interface.
func (f ResponderFunc) Respond(ctx context.Context, req *Request, res ResponseWriter) error {
	return f(ctx, req, res)
}

// Middleware is invoked around request handling. The boot pipeline only
// collects middleware, preserving declaration order; invocation mechanics
// belong to the runtime bridge.
type Middleware interface {
	Process(ctx context.Context, req *Request, res ResponseWriter, next Responder) error
}

// MiddlewareFunc is a functional implementation of the Middleware interface.
type MiddlewareFunc func(context.Context, *Request, ResponseWriter, Responder) error

// Process implements the Middleware interface.
func (f MiddlewareFunc) Process(ctx context.Context, req *Request, res ResponseWriter, next Responder) error {
	return f(ctx, req, res, next)
}

// BootResult is what a Bootable contributes to its host's request
// pipeline. Both slots are optional and independent: a component may
// yield a middleware, a responder, both, or neither.
type BootResult struct {
	Middleware Middleware
	Responder  Responder
}

// Bootable is a component with a single initialization entry point,
// invoked once at boot with the server handle and logger.
type Bootable interface {
	Boot(ctx context.Context, srv ServerHandle, log *logging.Logger) (BootResult, error)
}

// BootableFunc is a functional implementation of the Bootable interface.
type BootableFunc func(context.Context, ServerHandle, *logging.Logger) (BootResult, error)

// Boot implements the Bootable interface.
func (f BootableFunc) Boot(ctx context.Context, srv ServerHandle, log *logging.Logger) (BootResult, error) {
	return f(ctx, srv, log)
}

// State is the server's externally owned lifecycle state.
type State int32

const (
	Starting State = iota
	Started
	Stopping
	Stopped
)

// String implements the fmt.Stringer interface.
func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Started:
		return "started"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ServerHandle is the server surface exposed to bootables and observers.
type ServerHandle interface {
	State() State
	Attach(Observer)
}

// Observer is notified on every lifecycle state transition. Observers
// must return promptly; blocking an Update call stalls the transition
// for every later observer.
type Observer interface {
	Update(ctx context.Context, srv ServerHandle) error
}

// ObserverFunc is a functional implementation of the Observer interface.
type ObserverFunc func(context.Context, ServerHandle) error

// Update implements the Observer interface.
func (f ObserverFunc) Update(ctx context.Context, srv ServerHandle) error {
	return f(ctx, srv)
}

// Interface is a single bind address/port pair of a host.
type Interface struct {
	Address string
	Port    int
}

// Host declares a virtual host to be assembled at boot: its name, bind
// interfaces, ordered action sequence and optional TLS configuration.
// Actions may be Bootable, Middleware, Responder or any combination;
// anything else fails host assembly. A Host is immutable once handed
// to the boot pipeline.
type Host struct {
	Name       string
	Interfaces []Interface
	Actions    []any
	TLS        *tls.Config
}

// HostRegistry yields the declared hosts consumed by the bootstrapper.
type HostRegistry interface {
	Hosts() []Host
}

// Registry is the in-memory HostRegistry implementation.
type Registry struct {
	hosts []Host
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends host definitions in declaration order.
func (r *Registry) Add(hosts ...Host) {
	r.hosts = append(r.hosts, hosts...)
}

// Hosts implements the HostRegistry interface.
func (r *Registry) Hosts() []Host {
	return r.hosts
}
