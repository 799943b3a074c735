package util

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/relex/gotils/promexporter/promreg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRouter(t *testing.T) {
	mfactory := promreg.NewMetricFactory("testrouter_", nil, nil)
	flushes := mfactory.AddOrGetCounterVec("flushes_total", "Flushes", []string{"trigger"}, nil)
	flushes.WithLabelValues("manual").Add(2)
	flushes.WithLabelValues("capacity").Add(3)

	server := httptest.NewServer(NewMetricsRouter(mfactory))
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), `testrouter_flushes_total{trigger="manual"} 2`)
	assert.Contains(t, string(body), `testrouter_flushes_total{trigger="capacity"} 3`)

	index, err := server.Client().Get(server.URL + "/")
	require.NoError(t, err)
	defer index.Body.Close()
	assert.Equal(t, 200, index.StatusCode)
}
