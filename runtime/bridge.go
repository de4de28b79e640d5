// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tyx/aerys"
	"github.com/tyx/aerys/dispatch"
	"github.com/tyx/aerys/server"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// middlewareResponder runs one middleware around the rest of the chain.
type middlewareResponder struct {
	mw   aerys.Middleware
	next aerys.Responder
}

// Respond implements the aerys.Responder interface.
func (m middlewareResponder) Respond(ctx context.Context, req *aerys.Request, res aerys.ResponseWriter) error {
	return m.mw.Process(ctx, req, res, m.next)
}

// chain right-folds the vhost middleware around its composed responder,
// preserving declaration order on the way in.
func chain(vh *server.Vhost) aerys.Responder {
	responder := vh.Responder()
	middlewares := vh.Middlewares()
	for i := len(middlewares) - 1; i >= 0; i-- {
		responder = middlewareResponder{
			mw:   middlewares[i],
			next: responder,
		}
	}
	return responder
}

// bridge adapts a vhost's responder chain to net/http.
func (rt *Runtime) bridge(vh *server.Vhost) http.Handler {
	responder := chain(vh)
	tracer := otel.Tracer("aerys/runtime")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "vhost.respond")
		defer span.End()
		span.SetAttributes(attribute.String("aerys.host", vh.Name()))

		req := &aerys.Request{
			Method:     r.Method,
			URI:        r.RequestURI,
			Proto:      r.Proto,
			Header:     r.Header,
			Host:       r.Host,
			RemoteAddr: r.RemoteAddr,
			Body:       r.Body,
		}
		res := rt.newBridgeWriter(w)

		err := responder.Respond(ctx, req, res)
		if err != nil {
			span.RecordError(err)
			rt.log.Error("responder failed",
				slog.String("host", vh.Name()),
				slog.String("uri", req.URI),
				slog.Any("error", err),
			)
			if !res.Started() {
				res.genericResponse(http.StatusInternalServerError, "Internal Server Error")
			}
			return
		}

		// No responder committed anything: answer with the server's
		// own not-found page.
		if !res.Started() {
			res.genericResponse(http.StatusNotFound, "Not Found")
			return
		}
		_ = res.End()
	})
}

// bridgeWriter implements aerys.ResponseWriter on top of an
// http.ResponseWriter. Status, reason and headers buffer until the
// first Write or End commits the head.
type bridgeWriter struct {
	w http.ResponseWriter

	status  int
	reason  string
	started bool
	ended   bool

	date        string
	serverToken bool
	defaultType string
}

func (rt *Runtime) newBridgeWriter(w http.ResponseWriter) *bridgeWriter {
	opts := rt.srv.Options()

	contentType := opts.DefaultContentType
	if opts.DefaultTextCharset != "" {
		contentType = fmt.Sprintf("%s; charset=%s", contentType, opts.DefaultTextCharset)
	}

	return &bridgeWriter{
		w:           w,
		status:      http.StatusOK,
		date:        rt.srv.Ticker().Date(),
		serverToken: opts.SendServerToken,
		defaultType: contentType,
	}
}

// Started implements the aerys.ResponseWriter interface.
func (b *bridgeWriter) Started() bool {
	return b.started
}

// Status returns the committed or pending response status.
func (b *bridgeWriter) Status() int {
	return b.status
}

// SetStatus implements the aerys.ResponseWriter interface.
func (b *bridgeWriter) SetStatus(code int) {
	if !b.started {
		b.status = code
	}
}

// SetReason implements the aerys.ResponseWriter interface. net/http
// owns the wire status line, so the reason phrase is recorded for the
// pipeline and surfaced in server-generated response bodies only.
func (b *bridgeWriter) SetReason(reason string) {
	if !b.started {
		b.reason = reason
	}
}

// SetHeader implements the aerys.ResponseWriter interface.
func (b *bridgeWriter) SetHeader(name, value string) {
	if !b.started {
		b.w.Header().Set(name, value)
	}
}

func (b *bridgeWriter) commitHead() {
	if b.started {
		return
	}
	header := b.w.Header()
	header.Set("Date", b.date)
	if b.serverToken {
		header.Set("Server", "aerys")
	}
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", b.defaultType)
	}
	b.w.WriteHeader(b.status)
	b.started = true
}

// Write implements the aerys.ResponseWriter interface.
func (b *bridgeWriter) Write(p []byte) (int, error) {
	if b.ended {
		return 0, http.ErrBodyNotAllowed
	}
	b.commitHead()
	return b.w.Write(p)
}

// End implements the aerys.ResponseWriter interface.
func (b *bridgeWriter) End() error {
	b.commitHead()
	b.ended = true
	return nil
}

// genericResponse completes the response with a server-generated page.
func (b *bridgeWriter) genericResponse(status int, reason string) {
	b.SetStatus(status)
	b.SetReason(reason)
	b.SetHeader(dispatch.GenericResponseHeader, "enable")
	b.SetHeader("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(b, "<html><body><h1>%d %s</h1></body></html>", status, reason)
	_ = b.End()
}
