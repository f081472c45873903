package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNotifier(t *testing.T, handler http.HandlerFunc) (*Notifier, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return New(server.Client(), 2*time.Second, logger), server
}

func TestPost_HarvestsCorrelationToken(t *testing.T) {
	var received map[string]string
	n, server := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("x-ms-workflow-run-id", "08585287953")
		w.WriteHeader(http.StatusAccepted)
	})

	receipt, err := n.Post(context.Background(), server.URL, map[string]string{"protocol": "10300020240603"})
	require.NoError(t, err)
	assert.Equal(t, "08585287953", receipt.CorrelationToken)
	assert.Equal(t, "10300020240603", received["protocol"])
}

func TestPost_MissingTokenIsNotAnError(t *testing.T) {
	n, server := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	receipt, err := n.Post(context.Background(), server.URL, map[string]string{})
	require.NoError(t, err)
	assert.Empty(t, receipt.CorrelationToken)
}

func TestPost_Non2xxIsAnError(t *testing.T) {
	n, server := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := n.Post(context.Background(), server.URL, map[string]string{})
	assert.ErrorContains(t, err, "status 502")
}

func TestCancelRun_PostsRunID(t *testing.T) {
	var received map[string]string
	n, server := testNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
	})

	require.NoError(t, n.CancelRun(context.Background(), server.URL, "run-123"))
	assert.Equal(t, "run-123", received["run_id"])
}
