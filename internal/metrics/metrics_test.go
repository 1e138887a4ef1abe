package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Exchange(true)
	m.Exchange(true)
	m.Exchange(false)
	m.CheckpointTriggered()
	m.Validation("pass")
	m.ProofEvent(OutcomeStored)
	m.ProofEvent(OutcomeBuffered)
	m.RetryBufferSize(4)
	m.ObserveTurn("teaching", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.exchanges.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exchanges.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkpoints))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validations.WithLabelValues("pass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.proofEvents.WithLabelValues(OutcomeBuffered)))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.retryBuffer))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Exchange(true)
		m.CheckpointTriggered()
		m.Validation("retry")
		m.ProofEvent(OutcomeAbandoned)
		m.RetryBufferSize(1)
		m.ObserveTurn("checkpoint", time.Second)
	})
}

func TestHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.CheckpointTriggered()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "proofloop_checkpoints_triggered_total 1")
}
