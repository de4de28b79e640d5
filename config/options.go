// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Options is the structured server configuration. The declared fields
// are the full production option surface; while unsealed an Options
// additionally accepts ad hoc values through Set, which a sealed
// instance rejects. Sealing happens once, at boot, and only outside
// debug mode.
type Options struct {
	Debug                bool          `config:"debug"`
	ConfigPath           string        `config:"configPath"`
	User                 string        `config:"user"`
	MaxConnections       int           `config:"maxConnections"`
	MaxKeepAliveRequests int           `config:"maxKeepAliveRequests"`
	KeepAliveTimeout     time.Duration `config:"keepAliveTimeout"`
	DefaultContentType   string        `config:"defaultContentType"`
	DefaultTextCharset   string        `config:"defaultTextCharset"`
	SendServerToken      bool          `config:"sendServerToken"`
	ShutdownTimeout      time.Duration `config:"shutdownTimeout"`

	sealed bool
	extra  map[string]any
}

// optionNames is the declared option surface. Set and Get consult it so
// that sealing never needs runtime reflection.
var optionNames = map[string]struct{}{
	"debug":                {},
	"configPath":           {},
	"user":                 {},
	"maxConnections":       {},
	"maxKeepAliveRequests": {},
	"keepAliveTimeout":     {},
	"defaultContentType":   {},
	"defaultTextCharset":   {},
	"sendServerToken":      {},
	"shutdownTimeout":      {},
}

// Defaults returns the production default option values.
func Defaults() *Options {
	return &Options{
		MaxConnections:       1000,
		MaxKeepAliveRequests: 1000,
		KeepAliveTimeout:     6 * time.Second,
		DefaultContentType:   "text/html",
		DefaultTextCharset:   "utf-8",
		ShutdownTimeout:      6 * time.Second,
		extra:                make(map[string]any),
	}
}

// SealError occurs when a raw option value cannot be copied onto the
// structured Options.
type SealError struct {
	Cause error
}

// Error implements the error interface.
func (e SealError) Error() string {
	return fmt.Sprintf("failed to generate server options: %s", e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e SealError) Unwrap() error {
	return e.Cause
}

// UnknownOptionError occurs when a sealed Options is asked to accept an
// option name outside its declared field set.
type UnknownOptionError struct {
	Name string
}

// Error implements the error interface.
func (e UnknownOptionError) Error() string {
	return fmt.Sprintf("unknown server option %q", e.Name)
}

// Seal copies every entry of raw onto a mutable Options. In debug mode
// the mutable instance is returned as-is, keeping full flexibility for
// diagnostics. Otherwise a sealed instance restricted to exactly the
// declared fields is synthesized and returned; ad hoc values collected
// during the copy are dropped with it.
func Seal(raw map[string]any, debug bool) (*Options, error) {
	opts := Defaults()

	var meta mapstructure.Metadata
	err := decode(raw, opts, &meta)
	if err != nil {
		return nil, SealError{Cause: err}
	}
	for _, key := range meta.Unused {
		if v, ok := raw[key]; ok {
			opts.extra[key] = v
		}
	}

	if debug {
		return opts, nil
	}
	return opts.seal(), nil
}

// seal synthesizes the sealed variant by transferring exactly the
// declared fields, one by one.
func (o *Options) seal() *Options {
	return &Options{
		Debug:                o.Debug,
		ConfigPath:           o.ConfigPath,
		User:                 o.User,
		MaxConnections:       o.MaxConnections,
		MaxKeepAliveRequests: o.MaxKeepAliveRequests,
		KeepAliveTimeout:     o.KeepAliveTimeout,
		DefaultContentType:   o.DefaultContentType,
		DefaultTextCharset:   o.DefaultTextCharset,
		SendServerToken:      o.SendServerToken,
		ShutdownTimeout:      o.ShutdownTimeout,
		sealed:               true,
	}
}

// Sealed reports whether the instance rejects undeclared option names.
func (o *Options) Sealed() bool {
	return o.sealed
}

// Set assigns a named option. Declared fields are always assignable;
// names outside the declared set are only accepted while unsealed.
func (o *Options) Set(name string, value any) error {
	if _, ok := optionNames[name]; !ok {
		if o.sealed {
			return UnknownOptionError{Name: name}
		}
		o.extra[name] = value
		return nil
	}

	err := decode(map[string]any{name: value}, o, nil)
	if err != nil {
		return InvalidValueError{Key: name, Cause: err}
	}
	return nil
}

// Get returns the named option value and whether it is present.
func (o *Options) Get(name string) (any, bool) {
	switch name {
	case "debug":
		return o.Debug, true
	case "configPath":
		return o.ConfigPath, true
	case "user":
		return o.User, true
	case "maxConnections":
		return o.MaxConnections, true
	case "maxKeepAliveRequests":
		return o.MaxKeepAliveRequests, true
	case "keepAliveTimeout":
		return o.KeepAliveTimeout, true
	case "defaultContentType":
		return o.DefaultContentType, true
	case "defaultTextCharset":
		return o.DefaultTextCharset, true
	case "sendServerToken":
		return o.SendServerToken, true
	case "shutdownTimeout":
		return o.ShutdownTimeout, true
	}

	v, ok := o.extra[name]
	return v, ok
}
