package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/filtration-controller/internal/status"
)

func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	prevURL, prevClient, prevInit, prevTopic := baseURL, client, initialized, topic
	baseURL, client, initialized, topic = srv.URL, &http.Client{Timeout: time.Second}, true, "filters"
	t.Cleanup(func() {
		srv.Close()
		baseURL, client, initialized, topic = prevURL, prevClient, prevInit, prevTopic
	})
}

func TestSendPostsJSON(t *testing.T) {
	var body map[string]any
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	})

	require.NoError(t, Send("title", "message"))
	assert.Equal(t, "filters", body["topic"])
	assert.Equal(t, "title", body["title"])
}

func TestSendReportsBadStatus(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	assert.ErrorContains(t, Send("title", "message"), "429")
}

func TestBreachAlerterSendsOncePerLatch(t *testing.T) {
	calls := 0
	withServer(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	a := &BreachAlerter{}
	dry := status.Snapshot{Breach: status.NoBreach}
	wet := status.Snapshot{Breach: "2024-05-01T03:00:00"}

	for _, s := range []status.Snapshot{dry, wet, wet, wet, dry, wet} {
		require.NoError(t, a.Emit(s))
	}
	assert.Equal(t, 2, calls)
}

func TestBreachAlerterDisabled(t *testing.T) {
	prev := initialized
	initialized = false
	defer func() { initialized = prev }()

	a := &BreachAlerter{}
	assert.NoError(t, a.Emit(status.Snapshot{Breach: "2024-05-01T03:00:00"}))
}
