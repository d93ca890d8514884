package receiver_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littleapps/usagestats/server/internal/metrics"
	"github.com/littleapps/usagestats/server/internal/receiver"
	"github.com/littleapps/usagestats/server/internal/store"
)

const (
	jsonPayload = `[{"Type":"inventory","OS":"linux"},{"Type":"custom","Plan":null}]`
	xmlPayload  = `<Events><Event><Type><![CDATA[inventory]]></Type><Note><![CDATA[<Event>]]></Note></Event>` +
		`<Event><Type><![CDATA[custom]]></Type><Plan></Plan></Event><Event></Event></Events>`
)

func newServer(t *testing.T, maxBody int64) (*httptest.Server, *store.Store, *metrics.Collector) {
	t.Helper()
	st := store.New(5 * time.Minute)
	m := metrics.New()
	rc := receiver.New(st, m, maxBody)

	mux := http.NewServeMux()
	mux.HandleFunc("/collect", rc.Collect)
	mux.HandleFunc("/payloads", rc.Payloads)
	mux.Handle("/metrics", m.Handler())

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st, m
}

func post(t *testing.T, url, ua, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/collect", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", ua)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCollect_JSON(t *testing.T) {
	srv, st, _ := newServer(t, 1<<20)

	resp := post(t, srv.URL, "app/1.0", "data="+jsonPayload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "OK", string(body))

	e, ok := st.Get("app/1.0")
	require.True(t, ok)
	assert.Equal(t, receiver.FormatJSON, e.Format)
	assert.Equal(t, 2, e.Events)
	assert.True(t, e.Parsed)
	assert.Equal(t, jsonPayload, e.Payload)
}

func TestCollect_XMLCountsTopLevelEvents(t *testing.T) {
	srv, st, _ := newServer(t, 1<<20)

	resp := post(t, srv.URL, "app/1.0", "data="+xmlPayload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	e, ok := st.Get("app/1.0")
	require.True(t, ok)
	assert.Equal(t, receiver.FormatXML, e.Format)
	assert.Equal(t, 3, e.Events)
	assert.True(t, e.Parsed)
}

func TestCollect_EmptyBatches(t *testing.T) {
	srv, st, _ := newServer(t, 1<<20)

	post(t, srv.URL, "json-client", "data=[]")
	post(t, srv.URL, "xml-client", "data=<Events></Events>")

	e, _ := st.Get("json-client")
	assert.Equal(t, 0, e.Events)
	assert.True(t, e.Parsed)
	e, _ = st.Get("xml-client")
	assert.Equal(t, 0, e.Events)
	assert.True(t, e.Parsed)
}

func TestCollect_UnparseableStillAccepted(t *testing.T) {
	srv, st, _ := newServer(t, 1<<20)

	// Unescaped quote inside a value.
	resp := post(t, srv.URL, "app/1.0", `data=[{"Note":"say "hi""}]`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	e, ok := st.Get("app/1.0")
	require.True(t, ok)
	assert.False(t, e.Parsed)
	assert.Equal(t, 0, e.Events)
}

func TestCollect_Rejections(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing prefix", jsonPayload, http.StatusBadRequest},
		{"unknown format", "data=hello", http.StatusBadRequest},
		{"empty payload", "data=", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, st, _ := newServer(t, 1<<20)
			resp := post(t, srv.URL, "app", tc.body)
			assert.Equal(t, tc.code, resp.StatusCode)
			assert.Equal(t, 0, st.Count())
		})
	}
}

func TestCollect_TooLarge(t *testing.T) {
	srv, st, _ := newServer(t, 16)
	resp := post(t, srv.URL, "app", "data="+jsonPayload)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, 0, st.Count())
}

func TestCollect_MethodNotAllowed(t *testing.T) {
	srv, _, _ := newServer(t, 1<<20)
	resp, err := http.Get(srv.URL + "/collect")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCollect_LatestPerClient(t *testing.T) {
	srv, st, _ := newServer(t, 1<<20)
	post(t, srv.URL, "app/1.0", "data=[]")
	post(t, srv.URL, "app/1.0", "data="+jsonPayload)
	post(t, srv.URL, "other/2.0", "data="+xmlPayload)

	assert.Equal(t, 2, st.Count())
	e, _ := st.Get("app/1.0")
	assert.Equal(t, 2, e.Events)
}

func TestPayloads_ListsEntries(t *testing.T) {
	srv, _, _ := newServer(t, 1<<20)
	post(t, srv.URL, "b-client", "data="+jsonPayload)
	post(t, srv.URL, "a-client", "data="+xmlPayload)

	resp, err := http.Get(srv.URL + "/payloads")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []store.Entry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "a-client", got[0].Client)
	assert.Equal(t, "xml", got[0].Format)
	assert.Equal(t, "b-client", got[1].Client)
}

func TestMetrics_ReflectTraffic(t *testing.T) {
	srv, _, _ := newServer(t, 1<<20)
	post(t, srv.URL, "app", "data="+jsonPayload)
	post(t, srv.URL, "app", "nope")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)
	assert.Contains(t, out, `usagestats_collector_payloads_total{format="json"} 1`)
	assert.Contains(t, out, `usagestats_collector_events_total{format="json"} 2`)
	assert.Contains(t, out, `usagestats_collector_rejected_total{reason="missing_prefix"} 1`)
}
