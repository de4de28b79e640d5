// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// Ticker caches the current wall-clock time and its RFC1123 rendering
// on a one second heartbeat, so per-request Date headers never format
// time themselves.
type Ticker struct {
	now  atomic.Int64
	date atomic.Value
}

// NewTicker returns a Ticker primed with the current time.
func NewTicker() *Ticker {
	t := &Ticker{}
	t.update(time.Now())
	return t
}

func (t *Ticker) update(now time.Time) {
	t.now.Store(now.Unix())
	t.date.Store(now.UTC().Format(http.TimeFormat))
}

// Run updates the cached time every second until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			t.update(now)
		}
	}
}

// Now returns the cached time, second resolution.
func (t *Ticker) Now() time.Time {
	return time.Unix(t.now.Load(), 0)
}

// Date returns the cached RFC1123 date string for response headers.
func (t *Ticker) Date() string {
	return t.date.Load().(string)
}
