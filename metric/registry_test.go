package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisvansteen/Dashboards/errors"
)

func TestRegistry_RegisterAndUnregister(t *testing.T) {
	r := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "liveboard",
		Subsystem: "test",
		Name:      "events_total",
		Help:      "Test counter",
	})

	require.NoError(t, r.Register("ingest", "events_total", counter))

	// Same key again is invalid
	err := r.Register("ingest", "events_total", counter)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	assert.True(t, r.Unregister("ingest", "events_total"))
	assert.False(t, r.Unregister("ingest", "events_total"))

	// After unregister the key is free again
	require.NoError(t, r.Register("ingest", "events_total", counter))
}

func TestRegistry_DuplicateCollectorDifferentKey(t *testing.T) {
	r := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "liveboard_dup_total",
		Help: "Test counter",
	})

	require.NoError(t, r.Register("a", "dup", counter))
	err := r.Register("b", "dup", counter)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "liveboard",
		Subsystem: "board",
		Name:      "topics",
		Help:      "Cached topics",
	})
	require.NoError(t, r.Register("board", "topics", gauge))
	gauge.Set(3)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "liveboard_board_topics 3")
	// Runtime collectors come along for free
	assert.Contains(t, string(body), "go_goroutines")
}
