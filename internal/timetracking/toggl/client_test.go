package toggl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/timetracking"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "tok", observability.DiscardLogger())
}

func TestClient_Entry(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a stopped entry with basic auth", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "tok", user)
			assert.Equal(t, "api_token", pass)
			assert.Equal(t, "/me/time_entries/123", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":123,"description":"Work - 보고서","duration":1830,
				"start":"2026-10-18T02:30:00Z","stop":"2026-10-18T03:00:30Z"}`))
		})

		entry, err := client.Entry(ctx, "123")

		require.NoError(t, err)
		assert.Equal(t, "123", entry.ID)
		assert.Equal(t, 30, entry.Minutes())
		assert.False(t, entry.Running())
		assert.True(t, entry.Start.Equal(time.Date(2026, 10, 18, 2, 30, 0, 0, time.UTC)))
	})

	t.Run("not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.Entry(ctx, "1")

		assert.ErrorIs(t, err, timetracking.ErrEntryNotFound)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Entry(ctx, "1")

		assert.ErrorIs(t, err, timetracking.ErrTrackerUnavailable)
	})
}

func TestClient_Current(t *testing.T) {
	ctx := context.Background()

	t.Run("running entry has no duration", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/me/time_entries/current", r.URL.Path)
			_, _ = w.Write([]byte(`{"id":5,"description":"독서","duration":-1729216800,"start":"2026-10-18T02:00:00Z","stop":null}`))
		})

		entry, ok, err := client.Current(ctx)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, entry.Running())
		assert.Equal(t, 0, entry.Minutes())
	})

	t.Run("nothing running", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`null`))
		})

		_, ok, err := client.Current(ctx)

		require.NoError(t, err)
		assert.False(t, ok)
	})
}
