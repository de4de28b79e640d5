// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package boot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/dispatch"
	"github.com/tyx/aerys/server"
)

// InvalidActionError occurs when a declared host action is none of
// Bootable, Middleware or Responder.
type InvalidActionError struct {
	Action any
}

// Error implements the error interface.
func (e InvalidActionError) Error() string {
	return fmt.Sprintf("action of type %T is neither bootable, middleware, nor a responder", e.Action)
}

// HostAssemblyError occurs when any step of assembling a single host
// fails. It preserves the original cause so the failing host stays
// identifiable without affecting unrelated hosts' diagnostics.
type HostAssemblyError struct {
	Host  string
	Cause error
}

// Error implements the error interface.
func (e HostAssemblyError) Error() string {
	return fmt.Sprintf("failed to assemble host %q: %s", e.Host, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e HostAssemblyError) Unwrap() error {
	return e.Cause
}

// AssembleVhost runs the loader over a host's actions in declaration
// order, partitions the results into middlewares and responders,
// composes the responders into one and constructs the virtual host.
func AssembleVhost(ctx context.Context, host aerys.Host, loader *Loader) (*server.Vhost, error) {
	var middlewares []aerys.Middleware
	var responders []aerys.Responder

	for _, action := range host.Actions {
		var mw aerys.Middleware
		var responder aerys.Responder

		if bootable, ok := action.(aerys.Bootable); ok {
			result, err := loader.Load(ctx, bootable)
			if err != nil {
				return nil, HostAssemblyError{Host: host.Name, Cause: err}
			}
			mw = result.Middleware
			responder = result.Responder
		} else {
			mw, _ = action.(aerys.Middleware)
			responder, _ = action.(aerys.Responder)
			if mw == nil && responder == nil {
				return nil, HostAssemblyError{Host: host.Name, Cause: InvalidActionError{Action: action}}
			}
		}

		// Encounter order is caller-observable for middleware.
		if mw != nil {
			middlewares = append(middlewares, mw)
		}
		if responder != nil {
			responders = append(responders, responder)
		}
	}

	composed, err := dispatch.Compose(ctx, responders, loader)
	if err != nil {
		return nil, HostAssemblyError{Host: host.Name, Cause: err}
	}

	loader.log.Debug("assembled virtual host",
		slog.String("host", host.Name),
		slog.Int("middlewares", len(middlewares)),
		slog.Int("responders", len(responders)),
	)

	return server.NewVhost(host.Name, host.Interfaces, composed, middlewares, host.TLS), nil
}
