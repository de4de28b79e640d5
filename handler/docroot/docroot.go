// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package docroot serves static files out of a host's document root.
package docroot

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/logging"
)

const indexFile = "index.html"

// Handler is a bootable responder serving files beneath a root
// directory. Requests it cannot satisfy are left uncommitted so later
// responders in the host's chain get their chance.
type Handler struct {
	root string
}

// New returns a Handler serving files from root.
func New(root string) *Handler {
	return &Handler{root: root}
}

// Boot implements the aerys.Bootable interface. It validates the
// document root; the handler itself is directly invocable, so an empty
// result resolves to it.
func (h *Handler) Boot(ctx context.Context, srv aerys.ServerHandle, log *logging.Logger) (aerys.BootResult, error) {
	info, err := os.Stat(h.root)
	if err != nil {
		return aerys.BootResult{}, err
	}
	if !info.IsDir() {
		return aerys.BootResult{}, fmt.Errorf("document root %q is not a directory", h.root)
	}

	log.Debug("serving static files", slog.String("root", h.root))
	return aerys.BootResult{}, nil
}

// Respond implements the aerys.Responder interface.
func (h *Handler) Respond(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		return nil
	}

	rel, ok := relativePath(req.URI)
	if !ok {
		return nil
	}

	name := filepath.Join(h.root, filepath.FromSlash(rel))
	info, err := os.Stat(name)
	if err != nil {
		return nil
	}
	if info.IsDir() {
		name = filepath.Join(name, indexFile)
		info, err = os.Stat(name)
		if err != nil || info.IsDir() {
			return nil
		}
	}

	f, err := os.Open(name)
	if err != nil {
		return nil
	}
	defer f.Close()

	res.SetStatus(http.StatusOK)
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		res.SetHeader("Content-Type", ct)
	}
	res.SetHeader("Content-Length", fmt.Sprintf("%d", info.Size()))

	if req.Method == http.MethodHead {
		return res.End()
	}
	if _, err := io.Copy(res, f); err != nil {
		return err
	}
	return res.End()
}

// relativePath maps a request URI onto a root-relative slash path,
// rejecting anything that would escape the root.
func relativePath(uri string) (string, bool) {
	if i := strings.IndexByte(uri, '?'); i >= 0 {
		uri = uri[:i]
	}
	if !strings.HasPrefix(uri, "/") {
		return "", false
	}

	cleaned := path.Clean(uri)
	rel := strings.TrimPrefix(cleaned, "/")
	if rel == "" {
		rel = "."
	}
	if !fs.ValidPath(rel) {
		return "", false
	}
	return rel, true
}
