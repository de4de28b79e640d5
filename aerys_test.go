// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package aerys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestState_String(t *testing.T) {
	t.Run("will name every lifecycle state", func(t *testing.T) {
		testCases := []struct {
			state State
			name  string
		}{
			{Starting, "starting"},
			{Started, "started"},
			{Stopping, "stopping"},
			{Stopped, "stopped"},
		}
		for _, testCase := range testCases {
			require.Equal(t, testCase.name, testCase.state.String())
		}
	})

	t.Run("will mark unknown states", func(t *testing.T) {
		require.Equal(t, "unknown", State(42).String())
	})
}

func TestRegistry(t *testing.T) {
	t.Run("will yield hosts in registration order", func(t *testing.T) {
		registry := NewRegistry()
		registry.Add(Host{Name: "a.example.com"})
		registry.Add(Host{Name: "b.example.com"}, Host{Name: "c.example.com"})

		hosts := registry.Hosts()
		require.Len(t, hosts, 3)
		require.Equal(t, "a.example.com", hosts[0].Name)
		require.Equal(t, "b.example.com", hosts[1].Name)
		require.Equal(t, "c.example.com", hosts[2].Name)
	})

	t.Run("will yield nothing when empty", func(t *testing.T) {
		require.Empty(t, NewRegistry().Hosts())
	})
}
