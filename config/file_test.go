// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	t.Run("will fail with a PathError", func(t *testing.T) {
		t.Run("if the path is empty", func(t *testing.T) {
			_, err := ResolvePath("")

			var perr PathError
			require.ErrorAs(t, err, &perr)
			require.Equal(t, "no config file specified", perr.Error())
		})

		t.Run("if the path does not exist", func(t *testing.T) {
			_, err := ResolvePath(filepath.Join(t.TempDir(), "missing.yaml"))

			var perr PathError
			require.ErrorAs(t, err, &perr)
			require.Error(t, perr.Unwrap())
		})

		t.Run("if a directory holds no conventional config file", func(t *testing.T) {
			_, err := ResolvePath(t.TempDir())

			var perr PathError
			require.ErrorAs(t, err, &perr)
		})
	})

	t.Run("will resolve", func(t *testing.T) {
		t.Run("a plain file to its absolute path", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "server.yaml")
			require.NoError(t, os.WriteFile(path, []byte("debug: true"), 0o600))

			resolved, err := ResolvePath(path)
			require.NoError(t, err)
			require.Equal(t, path, resolved)
		})

		t.Run("a directory to the conventional config file inside it", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, DefaultFileName)
			require.NoError(t, os.WriteFile(path, []byte("debug: true"), 0o600))

			resolved, err := ResolvePath(dir)
			require.NoError(t, err)
			require.Equal(t, path, resolved)
		})
	})
}

func TestFileReader(t *testing.T) {
	t.Run("will read the underlying file lazily", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("user: alice"), 0o600))

		r := NewFileReader(os.DirFS(dir), "config.yaml")
		defer r.Close()

		m, err := Read(FromYaml(r))
		require.NoError(t, err)
		require.Equal(t, "alice", m.Values()["user"])
	})

	t.Run("will surface open failures on first read", func(t *testing.T) {
		r := NewFileReader(os.DirFS(t.TempDir()), "missing.yaml")

		_, err := Read(FromYaml(r))
		require.Error(t, err)
	})
}
