// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package boot turns declared hosts into a ready server: it resolves
// and seals the configuration, initializes bootable components and
// assembles every virtual host around a single composed responder.
package boot

import (
	"context"
	"fmt"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/logging"
)

// Loader initializes bootable components against the running server
// and logger.
type Loader struct {
	srv aerys.ServerHandle
	log *logging.Logger
}

// NewLoader returns a Loader booting components against srv and log.
func NewLoader(srv aerys.ServerHandle, log *logging.Logger) *Loader {
	return &Loader{
		srv: srv,
		log: log,
	}
}

// BootError occurs when a component's initialization fails. It names
// the offending component's concrete type.
type BootError struct {
	Component any
	Cause     error
}

// Error implements the error interface.
func (e BootError) Error() string {
	return fmt.Sprintf("failed to boot %T: %s", e.Component, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e BootError) Unwrap() error {
	return e.Cause
}

// Load invokes the component's initialization with the server handle
// and logger. When the component contributes neither middleware nor
// responder but is itself directly invocable, the component becomes
// the usable result; otherwise an empty result contributes nothing
// further to the pipeline.
func (l *Loader) Load(ctx context.Context, component aerys.Bootable) (aerys.BootResult, error) {
	result, err := component.Boot(ctx, l.srv, l.log)
	if err != nil {
		return aerys.BootResult{}, BootError{Component: component, Cause: err}
	}

	if result.Middleware == nil && result.Responder == nil {
		if r, ok := component.(aerys.Responder); ok {
			result.Responder = r
		}
	}
	return result, nil
}
