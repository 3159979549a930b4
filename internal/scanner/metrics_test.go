package scanner

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/pinrecover/internal/extraction"
)

func TestMetrics_ObserveScans(t *testing.T) {
	m := NewMetricsWithRegistry(prometheus.NewRegistry())
	s := newScanner(t, smallConfig(), WithMetrics(m))

	found := zerosWith(200, 150, []byte(`"pinCode":"1234"`))
	s.ScanReader(context.Background(), bytes.NewReader(found))
	s.ScanReader(context.Background(), bytes.NewReader(make([]byte, 100)))
	s.ScanFile(context.Background(), "/does/not/exist")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("open_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MatchesTotal.WithLabelValues(extraction.KeywordStrategyName)))
	// Three 64 byte chunks reach the keyword, then 100 bytes of zeros.
	assert.Equal(t, 292.0, testutil.ToFloat64(m.BytesRead))
	assert.Equal(t, 3.0+2.0, testutil.ToFloat64(m.WindowsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ScansInFlight))
	assert.Equal(t, 3, testutil.CollectAndCount(m.ScanDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.begin()
	m.observe(&Result{Err: ErrNotFound})
	m.end()
}

func TestNewMetrics_Singleton(t *testing.T) {
	assert.Same(t, NewMetrics(), NewMetrics())
}
