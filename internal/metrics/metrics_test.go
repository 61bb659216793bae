// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector("scout")

	c.RecordHTTPRequest(http.MethodGet, "/api/search/users", http.StatusOK, 20*time.Millisecond)
	c.RecordUpstreamCall(nil, time.Millisecond)
	c.RecordUpstreamCall(errors.New("boom"), time.Millisecond)
	c.RecordSearch(3, 30, 0)
	c.RecordSearch(1, 10, 4)
	c.RecordCache(true)
	c.RecordCache(false)
	c.RecordCache(false)

	assert.Equal(t, 1.0, counterValue(t, c, "scout_http_requests_total", map[string]string{"method": "GET", "route": "/api/search/users", "status": "200"}))
	assert.Equal(t, 1.0, counterValue(t, c, "scout_upstream_calls_total", map[string]string{"status": "ok"}))
	assert.Equal(t, 1.0, counterValue(t, c, "scout_upstream_calls_total", map[string]string{"status": "error"}))
	assert.Equal(t, 40.0, counterValue(t, c, "scout_users_retrieved_total", nil))
	assert.Equal(t, 4.0, counterValue(t, c, "scout_users_filtered_total", nil))
	assert.Equal(t, 1.0, counterValue(t, c, "scout_searches_exhausted_empty_total", nil))
	assert.Equal(t, 1.0, counterValue(t, c, "scout_cache_hits_total", nil))
	assert.Equal(t, 2.0, counterValue(t, c, "scout_cache_misses_total", nil))
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("scout")
	b := NewCollector("scout")

	a.RecordCache(true)
	assert.Equal(t, 1.0, counterValue(t, a, "scout_cache_hits_total", nil))
	assert.Equal(t, 0.0, counterValue(t, b, "scout_cache_hits_total", nil))
}

// counterValue gathers the registry and returns the counter matching name and labels.
func counterValue(t *testing.T, c *Collector, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, m := range family.GetMetric() {
			got := map[string]string{}
			for _, pair := range m.GetLabel() {
				got[pair.GetName()] = pair.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordHTTPRequest("GET", "/", 200, time.Second)
		c.RecordUpstreamCall(nil, time.Second)
		c.RecordSearch(1, 1, 1)
		c.RecordCache(true)
	})
	assert.Nil(t, c.Registry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("scout")
	c.RecordCache(true)

	server := httptest.NewServer(c.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "scout_cache_hits_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
