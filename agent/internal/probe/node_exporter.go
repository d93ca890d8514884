package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/littleapps/usagestats/pkg/types"
)

const defaultScrapeTimeout = 10 * time.Second

// node_exporter metric names we map onto event fields.
const (
	nodeUnameInfo   = "node_uname_info"
	nodeOSInfo      = "node_os_info"
	nodeCPUSeconds  = "node_cpu_seconds_total"
	nodeMemoryTotal = "node_memory_MemTotal_bytes"
)

// NodeExporter probes a host through its node_exporter endpoint.
type NodeExporter struct {
	session
	app    App
	url    string
	client *http.Client
}

// NewNodeExporter returns a prober scraping url. A nil client gets a
// default with a 10s timeout.
func NewNodeExporter(url string, app App, client *http.Client) *NodeExporter {
	if client == nil {
		client = &http.Client{Timeout: defaultScrapeTimeout}
	}
	return &NodeExporter{
		session: newSession(),
		app:     app,
		url:     url,
		client:  client,
	}
}

// Probe scrapes the endpoint once. A failed scrape is an error; metrics
// missing from a successful scrape become Null fields.
func (n *NodeExporter) Probe(ctx context.Context) (*types.Event, error) {
	mfs, err := fetchMetrics(ctx, n.client, n.url)
	if err != nil {
		return nil, fmt.Errorf("probe: node_exporter %q: %w", n.url, err)
	}

	uname := firstLabels(mfs[nodeUnameInfo])
	osInfo := firstLabels(mfs[nodeOSInfo])

	e := n.header(n.app)
	e.Set("OS", textOrNull(uname["sysname"])).
		Set("Kernel", textOrNull(uname["release"])).
		Set("Arch", textOrNull(uname["machine"])).
		Set("Hostname", textOrNull(uname["nodename"])).
		Set("Distro", textOrNull(osInfo["name"])).
		Set("DistroVersion", versionOrText(osInfo["version_id"])).
		Set("CPUCount", countOrNull(distinctLabel(mfs[nodeCPUSeconds], "cpu"))).
		Set("MemoryBytes", gaugeOrNull(mfs[nodeMemoryTotal]))
	return e, nil
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r.
// A partial result with a non-fatal parse warning is still a success.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// firstLabels returns the label set of the first sample in mf, or an empty
// map. Info metrics carry their data in labels with a constant value of 1.
func firstLabels(mf *dto.MetricFamily) map[string]string {
	out := make(map[string]string)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return out
	}
	for _, lp := range mf.GetMetric()[0].GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

// distinctLabel counts the distinct values of label across mf's samples.
func distinctLabel(mf *dto.MetricFamily, label string) int {
	if mf == nil {
		return 0
	}
	seen := make(map[string]struct{})
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == label {
				seen[lp.GetValue()] = struct{}{}
			}
		}
	}
	return len(seen)
}

func countOrNull(n int) types.Value {
	if n == 0 {
		return types.Null()
	}
	return types.Text(strconv.Itoa(n))
}

// gaugeOrNull renders the first gauge or untyped sample of mf as an integer.
func gaugeOrNull(mf *dto.MetricFamily) types.Value {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return types.Null()
	}
	m := mf.GetMetric()[0]
	var v float64
	switch {
	case m.Gauge != nil:
		v = m.Gauge.GetValue()
	case m.Untyped != nil:
		v = m.Untyped.GetValue()
	default:
		return types.Null()
	}
	return types.Text(strconv.FormatFloat(v, 'f', 0, 64))
}
