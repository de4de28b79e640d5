// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config resolves and evaluates the server configuration.
// Sources serialize themselves into a key value store, sources merge in
// order, and the merged result is either decoded into a caller type or
// sealed into the server Options.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Store represents a general key value structure.
type Store interface {
	Set(key string, value any) error
}

// Source defines valid config sources as those who can
// serialize themselves into a key value like structure.
type Source interface {
	Apply(Store) error
}

// Map is the in-memory Store implementation. Nested maps merge
// recursively; scalar values from later sources override earlier ones.
type Map map[string]any

// Set implements the Store interface.
func (m Map) Set(key string, value any) error {
	next, ok := value.(map[string]any)
	if !ok {
		m[key] = value
		return nil
	}

	prev, ok := m[key].(map[string]any)
	if !ok {
		m[key] = next
		return nil
	}

	sub := Map(prev)
	for k, v := range next {
		if err := sub.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Apply implements the Source interface, making any Map reusable
// as a source for another Store.
func (m Map) Apply(store Store) error {
	for k, v := range m {
		if err := store.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Manager holds the merged result of reading one or more Sources.
type Manager struct {
	store Map
}

// Read merges the given sources, in order, into a single Manager.
// Subsequent sources override previous sources.
func Read(srcs ...Source) (*Manager, error) {
	store := make(Map)
	for _, src := range srcs {
		err := src.Apply(store)
		if err != nil {
			return nil, err
		}
	}
	return &Manager{store: store}, nil
}

// Merge applies further sources, in order, over the already merged
// values.
func (m *Manager) Merge(srcs ...Source) error {
	for _, src := range srcs {
		err := src.Apply(m.store)
		if err != nil {
			return err
		}
	}
	return nil
}

// Values returns the merged raw option map.
func (m *Manager) Values() map[string]any {
	return m.store
}

// Unmarshal decodes the merged values into v.
func (m *Manager) Unmarshal(v any) error {
	return decode(m.store, v, nil)
}

func decode(src map[string]any, v any, meta *mapstructure.Metadata) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "config",
		Result:     v,
		Metadata:   meta,
		DecodeHook: timeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(src)
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(data.(string))
		case reflect.Int:
			return time.Duration(int64(data.(int))), nil
		default:
			return data, nil
		}
	}
}

// InvalidValueError occurs when a config value cannot serve the
// structure it is declared for.
type InvalidValueError struct {
	Key   string
	Cause error
}

// Error implements the error interface.
func (e InvalidValueError) Error() string {
	return fmt.Sprintf("invalid config value for %q: %s", e.Key, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e InvalidValueError) Unwrap() error {
	return e.Cause
}
