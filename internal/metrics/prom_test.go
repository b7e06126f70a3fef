package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetrics(t *testing.T) {
	m := NewRunMetrics(prometheus.Labels{"run": "test"})

	m.ObserveReport(Report{PotentialPerAtom: -0.005, KineticPerAtom: 0.04, Temperature: 310, TotalPerAtom: 0.035})
	m.ObserveReport(Report{PotentialPerAtom: 0.01, KineticPerAtom: 0.02, Temperature: 150, TotalPerAtom: 0.03})
	m.IncStep()
	m.IncStep()
	m.IncFrame()

	assert.Equal(t, 150.0, testutil.ToFloat64(m.temperature))
	assert.Equal(t, 0.03, testutil.ToFloat64(m.total))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.steps))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.frames))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.reports))

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `mdsim_steps_total{run="test"} 2`), string(data))
}
