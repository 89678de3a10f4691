package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordUpstream("/rates", "ok", 0.2)
	r.RecordUpstream("/rates", "error", 0.1)
	r.RecordStale("fetch")
	r.RecordAnalysis("zscore", "anomalies", 3)
	r.RecordAnalysis("zscore", "error", 0)
	r.SetActiveSessions(4)
	r.AddSubscribers(2)
	r.AddSubscribers(-1)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.upstreamTotal.WithLabelValues("/rates", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.upstreamTotal.WithLabelValues("/rates", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.staleTotal.WithLabelValues("fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.analysesTotal.WithLabelValues("zscore", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.sessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.subscribers))
}
