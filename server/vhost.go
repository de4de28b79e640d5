// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"crypto/tls"

	"github.com/tyx/aerys"
)

// Vhost is an assembled virtual host: exactly one composed responder,
// the collected middleware in declaration order and the optional TLS
// configuration. A Vhost is immutable after assembly.
type Vhost struct {
	name        string
	interfaces  []aerys.Interface
	responder   aerys.Responder
	middlewares []aerys.Middleware
	tlsConfig   *tls.Config
}

// NewVhost constructs an immutable Vhost.
func NewVhost(
	name string,
	interfaces []aerys.Interface,
	responder aerys.Responder,
	middlewares []aerys.Middleware,
	tlsConfig *tls.Config,
) *Vhost {
	return &Vhost{
		name:        name,
		interfaces:  append([]aerys.Interface(nil), interfaces...),
		responder:   responder,
		middlewares: append([]aerys.Middleware(nil), middlewares...),
		tlsConfig:   tlsConfig,
	}
}

// Name returns the host name.
func (vh *Vhost) Name() string {
	return vh.name
}

// Interfaces returns the bind address/port pairs.
func (vh *Vhost) Interfaces() []aerys.Interface {
	return append([]aerys.Interface(nil), vh.interfaces...)
}

// Responder returns the single composed request responder.
func (vh *Vhost) Responder() aerys.Responder {
	return vh.responder
}

// Middlewares returns the collected middleware in declaration order.
func (vh *Vhost) Middlewares() []aerys.Middleware {
	return append([]aerys.Middleware(nil), vh.middlewares...)
}

// TLSConfig returns the optional TLS configuration, nil when the host
// serves cleartext.
func (vh *Vhost) TLSConfig() *tls.Config {
	return vh.tlsConfig
}
