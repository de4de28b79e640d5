// Copyright (c) 2025 The Aerys Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTicker(t *testing.T) {
	t.Run("will be primed on construction", func(t *testing.T) {
		ticker := NewTicker()

		now := ticker.Now()
		require.WithinDuration(t, time.Now(), now, 2*time.Second)

		date, err := time.Parse(http.TimeFormat, ticker.Date())
		require.NoError(t, err)
		require.WithinDuration(t, now.UTC(), date, 2*time.Second)
	})

	t.Run("will render the cached date in RFC1123 GMT form", func(t *testing.T) {
		ticker := NewTicker()
		ticker.update(time.Date(2025, time.March, 9, 12, 34, 56, 0, time.UTC))

		require.Equal(t, "Sun, 09 Mar 2025 12:34:56 GMT", ticker.Date())
		require.Equal(t, int64(1741523696), ticker.Now().Unix())
	})
}
