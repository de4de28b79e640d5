// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package runtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/config"
	"github.com/tyx/aerys/dispatch"
	"github.com/tyx/aerys/logging"
	"github.com/tyx/aerys/server"

	"github.com/stretchr/testify/require"
)

func newTestRuntime(opts *config.Options) *Runtime {
	log := logging.New(logging.NopSink{})
	return New(server.New(opts, log), log)
}

func vhostWith(responder aerys.Responder, middlewares ...aerys.Middleware) *server.Vhost {
	return server.NewVhost("example.com", nil, responder, middlewares, nil)
}

func TestBridgeWriter(t *testing.T) {
	t.Run("will buffer the head until the first write", func(t *testing.T) {
		rt := newTestRuntime(config.Defaults())
		w := httptest.NewRecorder()
		res := rt.newBridgeWriter(w)

		res.SetStatus(http.StatusCreated)
		res.SetHeader("X-Thing", "yes")
		require.False(t, res.Started())

		_, err := res.Write([]byte("body"))
		require.NoError(t, err)
		require.True(t, res.Started())

		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, "yes", w.Header().Get("X-Thing"))
		require.Equal(t, "body", w.Body.String())
	})

	t.Run("will stamp server-generated headers on commit", func(t *testing.T) {
		opts := config.Defaults()
		opts.SendServerToken = true
		rt := newTestRuntime(opts)
		w := httptest.NewRecorder()
		res := rt.newBridgeWriter(w)

		require.NoError(t, res.End())

		require.NotEmpty(t, w.Header().Get("Date"))
		require.True(t, strings.HasSuffix(w.Header().Get("Date"), "GMT"))
		require.Equal(t, "aerys", w.Header().Get("Server"))
		require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	})

	t.Run("will not override an explicit content type", func(t *testing.T) {
		rt := newTestRuntime(config.Defaults())
		w := httptest.NewRecorder()
		res := rt.newBridgeWriter(w)

		res.SetHeader("Content-Type", "application/json")
		require.NoError(t, res.End())
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("will omit the server token unless enabled", func(t *testing.T) {
		rt := newTestRuntime(config.Defaults())
		w := httptest.NewRecorder()
		res := rt.newBridgeWriter(w)

		require.NoError(t, res.End())
		require.Empty(t, w.Header().Get("Server"))
	})

	t.Run("will ignore head mutations after the response started", func(t *testing.T) {
		rt := newTestRuntime(config.Defaults())
		w := httptest.NewRecorder()
		res := rt.newBridgeWriter(w)

		_, err := res.Write([]byte("early"))
		require.NoError(t, err)

		res.SetStatus(http.StatusTeapot)
		res.SetHeader("X-Late", "nope")
		res.SetReason("too late")

		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, w.Header().Get("X-Late"))
	})

	t.Run("will reject writes after End", func(t *testing.T) {
		rt := newTestRuntime(config.Defaults())
		w := httptest.NewRecorder()
		res := rt.newBridgeWriter(w)

		require.NoError(t, res.End())

		_, err := res.Write([]byte("late"))
		require.ErrorIs(t, err, http.ErrBodyNotAllowed)
	})
}

func TestBridge(t *testing.T) {
	t.Run("will translate the request for the responder chain", func(t *testing.T) {
		rt := newTestRuntime(config.Defaults())
		var got *aerys.Request
		handler := rt.bridge(vhostWith(aerys.ResponderFunc(func(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
			got = req
			res.SetStatus(http.StatusNoContent)
			return res.End()
		})))

		r := httptest.NewRequest(http.MethodPost, "/submit?x=1", strings.NewReader("payload"))
		r.Header.Set("X-Req", "abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusNoContent, w.Code)
		require.Equal(t, http.MethodPost, got.Method)
		require.Equal(t, "/submit?x=1", got.URI)
		require.Equal(t, "example.com", got.Host)
		require.Equal(t, "abc", got.Header.Get("X-Req"))
	})

	t.Run("will run middleware in declaration order around the responder", func(t *testing.T) {
		rt := newTestRuntime(config.Defaults())
		var order []string
		tag := func(name string) aerys.Middleware {
			return aerys.MiddlewareFunc(func(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter, next aerys.Responder) error {
				order = append(order, name+":in")
				err := next.Respond(ctx, req, res)
				order = append(order, name+":out")
				return err
			})
		}
		responder := aerys.ResponderFunc(func(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
			order = append(order, "responder")
			return res.End()
		})

		handler := rt.bridge(vhostWith(responder, tag("outer"), tag("inner")))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, []string{"outer:in", "inner:in", "responder", "inner:out", "outer:out"}, order)
	})

	t.Run("will answer with the generic not-found page", func(t *testing.T) {
		t.Run("if no responder commits anything", func(t *testing.T) {
			rt := newTestRuntime(config.Defaults())
			handler := rt.bridge(vhostWith(aerys.ResponderFunc(func(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
				return nil
			})))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

			require.Equal(t, http.StatusNotFound, w.Code)
			require.Equal(t, "enable", w.Header().Get(dispatch.GenericResponseHeader))
			require.Contains(t, w.Body.String(), "404 Not Found")
		})
	})

	t.Run("will answer with the generic error page", func(t *testing.T) {
		t.Run("if the responder fails before committing", func(t *testing.T) {
			rt := newTestRuntime(config.Defaults())
			handler := rt.bridge(vhostWith(aerys.ResponderFunc(func(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
				return errors.New("boom")
			})))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, http.StatusInternalServerError, w.Code)
			require.Equal(t, "enable", w.Header().Get(dispatch.GenericResponseHeader))
			require.Contains(t, w.Body.String(), "500 Internal Server Error")
		})

		t.Run("but never clobber a committed response", func(t *testing.T) {
			rt := newTestRuntime(config.Defaults())
			handler := rt.bridge(vhostWith(aerys.ResponderFunc(func(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
				res.SetStatus(http.StatusAccepted)
				_, _ = res.Write([]byte("partial"))
				return errors.New("boom after commit")
			})))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			require.Equal(t, http.StatusAccepted, w.Code)
			require.Equal(t, "partial", w.Body.String())
		})
	})
}
