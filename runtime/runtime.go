// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package runtime serves an assembled server over net/http: one
// listener per host interface, TLS where the host declares crypto, and
// a graceful shutdown sequence that drives the lifecycle states every
// attached observer reacts to.
package runtime

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/logging"
	"github.com/tyx/aerys/server"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// Runtime runs a bootstrapped server until its context is cancelled.
type Runtime struct {
	srv *server.Server
	log *logging.Logger
}

// New returns a Runtime for the given bootstrapped server.
func New(srv *server.Server, log *logging.Logger) *Runtime {
	return &Runtime{
		srv: srv,
		log: log,
	}
}

type binding struct {
	vhost    *server.Vhost
	addr     string
	listener net.Listener
	httpSrv  *http.Server
}

// Run binds every host interface, advances the server through Starting
// and Started, serves until ctx is cancelled, then advances through
// Stopping and Stopped around a graceful drain.
func (rt *Runtime) Run(ctx context.Context) error {
	rt.srv.Advance(ctx, aerys.Starting)

	bindings, err := rt.bind()
	if err != nil {
		closeBindings(bindings)
		return err
	}

	rt.srv.Advance(ctx, aerys.Started)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.srv.Ticker().Run(gctx)
	})

	for _, b := range bindings {
		b := b
		g.Go(func() error {
			rt.log.Info("listening",
				slog.String("host", b.vhost.Name()),
				slog.String("addr", b.addr),
			)
			err := b.httpSrv.Serve(b.listener)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		rt.shutdown(bindings)
		return nil
	})

	err = g.Wait()
	rt.srv.Advance(context.Background(), aerys.Stopped)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// bind opens one listener per (vhost, interface) pair.
func (rt *Runtime) bind() ([]*binding, error) {
	opts := rt.srv.Options()

	var bindings []*binding
	for _, vh := range rt.srv.Vhosts() {
		handler := otelhttp.NewHandler(rt.bridge(vh), "aerys."+vh.Name())

		for _, iface := range vh.Interfaces() {
			addr := net.JoinHostPort(iface.Address, strconv.Itoa(iface.Port))

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return bindings, err
			}
			if cfg := vh.TLSConfig(); cfg != nil {
				ln = tls.NewListener(ln, cfg)
			}

			bindings = append(bindings, &binding{
				vhost:    vh,
				addr:     addr,
				listener: ln,
				httpSrv: &http.Server{
					Handler:     handler,
					IdleTimeout: opts.KeepAliveTimeout,
				},
			})
		}
	}
	return bindings, nil
}

// shutdown advances to Stopping, so in-flight multi-responder chains
// short-circuit, then drains every listener within the configured
// shutdown timeout.
func (rt *Runtime) shutdown(bindings []*binding) {
	rt.srv.Advance(context.Background(), aerys.Stopping)

	timeout := rt.srv.Options().ShutdownTimeout
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, b := range bindings {
		if err := b.httpSrv.Shutdown(ctx); err != nil {
			rt.log.Warning("listener did not drain cleanly",
				slog.String("addr", b.addr),
				slog.Any("error", err),
			)
		}
	}
}

func closeBindings(bindings []*binding) {
	for _, b := range bindings {
		_ = b.listener.Close()
	}
}
