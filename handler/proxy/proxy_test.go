// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package proxy

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/internal/responsetest"
	"github.com/tyx/aerys/logging"

	"github.com/stretchr/testify/require"
)

type noopHandle struct{}

func (noopHandle) State() aerys.State      { return aerys.Started }
func (noopHandle) Attach(o aerys.Observer) {}

func bootHandler(t *testing.T, upstream string, opts ...Option) *Handler {
	t.Helper()
	h := New(upstream, opts...)
	_, err := h.Boot(context.Background(), noopHandle{}, logging.New(logging.NopSink{}))
	require.NoError(t, err)
	return h
}

func TestHandler_Boot(t *testing.T) {
	log := logging.New(logging.NopSink{})

	t.Run("will fail", func(t *testing.T) {
		t.Run("if the upstream is not a URL", func(t *testing.T) {
			_, err := New("://nope").Boot(context.Background(), noopHandle{}, log)
			require.Error(t, err)
		})

		t.Run("if the upstream scheme is not http or https", func(t *testing.T) {
			_, err := New("ftp://example.com").Boot(context.Background(), noopHandle{}, log)
			require.Error(t, err)
		})

		t.Run("if the upstream has no host", func(t *testing.T) {
			_, err := New("http://").Boot(context.Background(), noopHandle{}, log)
			require.Error(t, err)
		})
	})
}

func TestHandler_Respond(t *testing.T) {
	t.Run("will forward the request upstream", func(t *testing.T) {
		var upstreamReq *http.Request
		var upstreamBody string
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			upstreamReq = r.Clone(context.Background())
			body, _ := io.ReadAll(r.Body)
			upstreamBody = string(body)

			w.Header().Set("X-Origin", "yes")
			w.WriteHeader(http.StatusAccepted)
			_, _ = io.WriteString(w, "origin says hi")
		}))
		defer upstream.Close()

		h := bootHandler(t, upstream.URL)
		res := responsetest.NewRecorder()
		req := &aerys.Request{
			Method:     http.MethodPost,
			URI:        "/api/items?limit=5",
			Header:     http.Header{"X-Req": []string{"abc"}, "Connection": []string{"close"}},
			Host:       "public.example.com",
			RemoteAddr: "203.0.113.7:4711",
			Body:       strings.NewReader("payload"),
		}

		err := h.Respond(context.Background(), req, res)
		require.NoError(t, err)

		require.Equal(t, "/api/items", upstreamReq.URL.Path)
		require.Equal(t, "limit=5", upstreamReq.URL.RawQuery)
		require.Equal(t, "abc", upstreamReq.Header.Get("X-Req"))
		require.Empty(t, upstreamReq.Header.Get("Connection"))
		require.Equal(t, "203.0.113.7:4711", upstreamReq.Header.Get("X-Forwarded-For"))
		require.Equal(t, "public.example.com", upstreamReq.Header.Get("X-Forwarded-Host"))
		require.Equal(t, "payload", upstreamBody)

		require.Equal(t, http.StatusAccepted, res.StatusCode)
		require.Equal(t, "yes", res.Header.Get("X-Origin"))
		require.Equal(t, "origin says hi", res.Body.String())
		require.True(t, res.Ended)
	})

	t.Run("will strip hop-by-hop headers from the upstream response", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Proxy-Authenticate", "Basic")
			w.Header().Set("X-Kept", "yes")
		}))
		defer upstream.Close()

		h := bootHandler(t, upstream.URL)
		res := responsetest.NewRecorder()

		err := h.Respond(context.Background(), &aerys.Request{Method: http.MethodGet, URI: "/"}, res)
		require.NoError(t, err)

		require.Empty(t, res.Header.Get("Proxy-Authenticate"))
		require.Equal(t, "yes", res.Header.Get("X-Kept"))
	})

	t.Run("will commit a 502", func(t *testing.T) {
		t.Run("if the upstream is unreachable", func(t *testing.T) {
			h := bootHandler(t, "http://127.0.0.1:1", RetryMax(0), Timeout(time.Second))
			res := responsetest.NewRecorder()

			err := h.Respond(context.Background(), &aerys.Request{Method: http.MethodGet, URI: "/"}, res)
			require.NoError(t, err)

			require.Equal(t, http.StatusBadGateway, res.StatusCode)
			require.Equal(t, "Bad Gateway", res.Reason)
			require.True(t, res.Ended)
		})

		t.Run("once consecutive failures trip the circuit", func(t *testing.T) {
			h := bootHandler(t, "http://127.0.0.1:1", RetryMax(0), Timeout(time.Second), TripCount(2))
			for i := 0; i < 2; i++ {
				res := responsetest.NewRecorder()
				require.NoError(t, h.Respond(context.Background(), &aerys.Request{Method: http.MethodGet, URI: "/"}, res))
			}

			require.Equal(t, "open", h.breaker.State().String())

			res := responsetest.NewRecorder()
			require.NoError(t, h.Respond(context.Background(), &aerys.Request{Method: http.MethodGet, URI: "/"}, res))
			require.Equal(t, http.StatusBadGateway, res.StatusCode)
		})
	})
}
