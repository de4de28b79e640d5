// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	t.Run("will merge sources in order", func(t *testing.T) {
		t.Run("with later scalar values overriding earlier ones", func(t *testing.T) {
			m, err := Read(
				FromYaml(strings.NewReader("user: alice\nmaxConnections: 10")),
				FromYaml(strings.NewReader("user: bob")),
			)
			require.NoError(t, err)

			values := m.Values()
			require.Equal(t, "bob", values["user"])
			require.Equal(t, 10, values["maxConnections"])
		})

		t.Run("with nested maps merging recursively", func(t *testing.T) {
			m, err := Read(
				FromYaml(strings.NewReader("tls:\n  cert: a.pem\n  key: a.key")),
				FromYaml(strings.NewReader("tls:\n  cert: b.pem")),
			)
			require.NoError(t, err)

			tls, ok := m.Values()["tls"].(map[string]any)
			require.True(t, ok)
			require.Equal(t, "b.pem", tls["cert"])
			require.Equal(t, "a.key", tls["key"])
		})
	})

	t.Run("will fail", func(t *testing.T) {
		t.Run("if a source holds invalid yaml", func(t *testing.T) {
			_, err := Read(FromYaml(strings.NewReader("\t{nope")))

			var yerr InvalidYamlError
			require.ErrorAs(t, err, &yerr)
		})

		t.Run("if a source holds invalid json", func(t *testing.T) {
			_, err := Read(FromJson(strings.NewReader("{nope")))

			var jerr InvalidJsonError
			require.ErrorAs(t, err, &jerr)
		})
	})
}

func TestManager_Merge(t *testing.T) {
	t.Run("will apply further sources over the merged values", func(t *testing.T) {
		m, err := Read(FromYaml(strings.NewReader("user: alice")))
		require.NoError(t, err)

		err = m.Merge(FromJson(strings.NewReader(`{"user": "bob", "debug": true}`)))
		require.NoError(t, err)

		require.Equal(t, "bob", m.Values()["user"])
		require.Equal(t, true, m.Values()["debug"])
	})
}

func TestManager_Unmarshal(t *testing.T) {
	t.Run("will decode the merged values", func(t *testing.T) {
		t.Run("honoring config tags and duration strings", func(t *testing.T) {
			m, err := Read(FromYaml(strings.NewReader("bindAddr: 0.0.0.0\ndrain: 5s")))
			require.NoError(t, err)

			var cfg struct {
				BindAddr string        `config:"bindAddr"`
				Drain    time.Duration `config:"drain"`
			}
			require.NoError(t, m.Unmarshal(&cfg))
			require.Equal(t, "0.0.0.0", cfg.BindAddr)
			require.Equal(t, 5*time.Second, cfg.Drain)
		})
	})
}
