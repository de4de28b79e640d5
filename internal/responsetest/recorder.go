// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package responsetest provides an in-memory aerys.ResponseWriter for
// exercising responder pipelines without a network.
package responsetest

import (
	"bytes"
	"net/http"
)

// Recorder records everything written through the ResponseWriter
// surface.
type Recorder struct {
	StatusCode int
	Reason     string
	Header     http.Header
	Body       bytes.Buffer
	Ended      bool

	started bool
}

// NewRecorder returns a Recorder with an empty header map and a
// pending 200 status.
func NewRecorder() *Recorder {
	return &Recorder{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
	}
}

// Started implements the aerys.ResponseWriter interface.
func (r *Recorder) Started() bool {
	return r.started
}

// SetStatus implements the aerys.ResponseWriter interface.
func (r *Recorder) SetStatus(code int) {
	if !r.started {
		r.StatusCode = code
	}
}

// SetReason implements the aerys.ResponseWriter interface.
func (r *Recorder) SetReason(reason string) {
	if !r.started {
		r.Reason = reason
	}
}

// SetHeader implements the aerys.ResponseWriter interface.
func (r *Recorder) SetHeader(name, value string) {
	if !r.started {
		r.Header.Set(name, value)
	}
}

// Write implements the aerys.ResponseWriter interface.
func (r *Recorder) Write(p []byte) (int, error) {
	r.started = true
	return r.Body.Write(p)
}

// End implements the aerys.ResponseWriter interface.
func (r *Recorder) End() error {
	r.started = true
	r.Ended = true
	return nil
}

// Status returns the recorded status, mirroring the runtime bridge's
// optional accessor.
func (r *Recorder) Status() int {
	return r.StatusCode
}
