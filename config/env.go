// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// EnvJson represents a Source backed by a single environment variable
// holding a JSON object of option values. This is the process-wide
// option override surface: if the variable is unset the source is a
// no-op, and anything other than a JSON object is a configuration error.
type EnvJson struct {
	key    string
	lookup func(string) (string, bool)
}

// FromEnvJson returns a Source applying the JSON object held by the
// named environment variable.
func FromEnvJson(key string) EnvJson {
	return EnvJson{
		key:    key,
		lookup: os.LookupEnv,
	}
}

// EnvTypeError occurs when the environment variable is defined but does
// not contain a JSON object.
type EnvTypeError struct {
	Key   string
	Cause error
}

// Error implements the error interface.
func (e EnvTypeError) Error() string {
	return fmt.Sprintf("environment variable %q must hold a JSON object of options: %s", e.Key, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e EnvTypeError) Unwrap() error {
	return e.Cause
}

// Apply implements the Source interface.
func (src EnvJson) Apply(store Store) error {
	raw, ok := src.lookup(src.key)
	if !ok {
		return nil
	}

	m := make(map[string]any)
	err := json.Unmarshal([]byte(raw), &m)
	if err != nil {
		return EnvTypeError{Key: src.key, Cause: err}
	}
	return Map(m).Apply(store)
}
