// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server owns the shared runtime state assembled at boot: the
// lifecycle state machine with its observer registry, the virtual host
// container and the wall-clock ticker.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/config"
	"github.com/tyx/aerys/logging"
)

// Server is the shared handle every bootable and observer receives.
type Server struct {
	opts   *config.Options
	log    *logging.Logger
	ticker *Ticker

	state atomic.Int32

	mu        sync.Mutex
	observers []aerys.Observer
	vhosts    []*Vhost
	byName    map[string]*Vhost
}

// New returns a Server in the Starting state.
func New(opts *config.Options, log *logging.Logger) *Server {
	s := &Server{
		opts:   opts,
		log:    log,
		ticker: NewTicker(),
		byName: make(map[string]*Vhost),
	}
	s.state.Store(int32(aerys.Starting))
	return s
}

// Options returns the sealed server options.
func (s *Server) Options() *config.Options {
	return s.opts
}

// Logger returns the server logger.
func (s *Server) Logger() *logging.Logger {
	return s.log
}

// Ticker returns the server's wall-clock ticker.
func (s *Server) Ticker() *Ticker {
	return s.ticker
}

// State implements the aerys.ServerHandle interface.
func (s *Server) State() aerys.State {
	return aerys.State(s.state.Load())
}

// Attach implements the aerys.ServerHandle interface.
func (s *Server) Attach(o aerys.Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Advance moves the server to the given lifecycle state and notifies
// every attached observer, in attachment order. Observer failures are
// logged and never abort the transition.
func (s *Server) Advance(ctx context.Context, state aerys.State) {
	s.state.Store(int32(state))

	s.mu.Lock()
	observers := make([]aerys.Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		err := o.Update(ctx, s)
		if err != nil {
			s.log.Error("lifecycle observer failed",
				slog.String("state", state.String()),
				slog.Any("error", err),
			)
		}
	}
}

// DuplicateVhostError occurs when two hosts are registered under the
// same name.
type DuplicateVhostError struct {
	Name string
}

// Error implements the error interface.
func (e DuplicateVhostError) Error() string {
	return fmt.Sprintf("virtual host %q is already registered", e.Name)
}

// RegisterVhost adds an assembled virtual host to the server container.
func (s *Server) RegisterVhost(vh *Vhost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[vh.Name()]; ok {
		return DuplicateVhostError{Name: vh.Name()}
	}
	s.byName[vh.Name()] = vh
	s.vhosts = append(s.vhosts, vh)
	return nil
}

// Vhosts returns the registered virtual hosts in registration order.
func (s *Server) Vhosts() []*Vhost {
	s.mu.Lock()
	defer s.mu.Unlock()

	vhosts := make([]*Vhost, len(s.vhosts))
	copy(vhosts, s.vhosts)
	return vhosts
}
