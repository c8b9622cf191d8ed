//go:build integration

package integration

import (
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsIncludePoolStats(t *testing.T) {
	env := newTestEnv(t)

	health := env.do(t, http.MethodGet, "/health", "", nil)
	health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)

	resp := env.do(t, http.MethodGet, "/metrics", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "clinic_api_db_pool_max_conns 5")
	assert.Contains(t, string(body), "clinic_api_db_pool_acquires_total")
	assert.Contains(t, string(body), `clinic_api_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
