package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector_Counts(t *testing.T) {
	c := New()
	c.Accepted("json", 2)
	c.Accepted("json", 1)
	c.Accepted("xml", 4)
	c.Rejected("missing_prefix")

	out := scrape(t, c)
	assert.Contains(t, out, `usagestats_collector_payloads_total{format="json"} 2`)
	assert.Contains(t, out, `usagestats_collector_payloads_total{format="xml"} 1`)
	assert.Contains(t, out, `usagestats_collector_events_total{format="json"} 3`)
	assert.Contains(t, out, `usagestats_collector_events_total{format="xml"} 4`)
	assert.Contains(t, out, `usagestats_collector_rejected_total{reason="missing_prefix"} 1`)
}

func TestCollector_Isolated(t *testing.T) {
	a, b := New(), New()
	a.Accepted("json", 1)
	assert.NotContains(t, scrape(t, b), `usagestats_collector_payloads_total{format="json"}`)
}
