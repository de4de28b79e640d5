// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFileName is the conventional config file looked up when the
// configured path names a directory.
const DefaultFileName = "config.yaml"

// PathError occurs when the config path is missing or cannot be
// resolved to an existing file.
type PathError struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e PathError) Error() string {
	if e.Path == "" {
		return "no config file specified"
	}
	return fmt.Sprintf("config file %q could not be resolved: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e PathError) Unwrap() error {
	return e.Cause
}

// ResolvePath resolves a configured path to an existing config file.
// An empty path fails; a directory resolves to the conventional
// DefaultFileName inside it.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", PathError{}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", PathError{Path: path, Cause: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", PathError{Path: path, Cause: err}
	}
	if info.IsDir() {
		abs = filepath.Join(abs, DefaultFileName)
		if _, err := os.Stat(abs); err != nil {
			return "", PathError{Path: path, Cause: err}
		}
	}
	return abs, nil
}

// FileReader is an io.Reader that handles opening a file for reading
// automatically.
type FileReader struct {
	path string

	openOnce sync.Once
	fs       fs.FS
	file     io.ReadCloser
}

// NewFileReader configures a FileReader.
func NewFileReader(fsys fs.FS, path string) *FileReader {
	return &FileReader{
		path: path,
		fs:   fsys,
	}
}

// Read implements the io.Reader interface.
func (r *FileReader) Read(b []byte) (int, error) {
	var err error
	r.openOnce.Do(func() {
		r.file, err = r.fs.Open(r.path)
	})
	if err != nil {
		return 0, err
	}
	return r.file.Read(b)
}

// Close implements the io.Closer interface.
func (r *FileReader) Close() error {
	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	return err
}
