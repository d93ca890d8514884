package receiver

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/littleapps/usagestats/server/internal/metrics"
	"github.com/littleapps/usagestats/server/internal/store"
)

const formPrefix = "data="

// Wire formats recognised in a payload.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
)

// Receiver serves POST /collect and GET /payloads.
type Receiver struct {
	store   *store.Store
	metrics *metrics.Collector
	maxBody int64
}

// New creates a Receiver that writes accepted payloads to st. Bodies larger
// than maxBody bytes are rejected.
func New(st *store.Store, m *metrics.Collector, maxBody int64) *Receiver {
	return &Receiver{store: st, metrics: m, maxBody: maxBody}
}

// Collect handles POST /collect. The body is read raw: agents send the
// payload unescaped after the data= prefix, so form decoding would corrupt it.
func (rc *Receiver) Collect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, rc.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rc.reject(w, "too_large", http.StatusRequestEntityTooLarge)
			return
		}
		rc.reject(w, "read_error", http.StatusBadRequest)
		return
	}

	if !bytes.HasPrefix(body, []byte(formPrefix)) {
		rc.reject(w, "missing_prefix", http.StatusBadRequest)
		return
	}
	payload := body[len(formPrefix):]

	format := detectFormat(payload)
	if format == "" {
		rc.reject(w, "unknown_format", http.StatusBadRequest)
		return
	}

	n, parsed := countEvents(format, payload)
	if !parsed {
		slog.Warn("receiver: payload not parseable, stored without event count",
			"client", r.UserAgent(),
			"format", format,
		)
	}

	rc.store.Put(store.Entry{
		Client:  r.UserAgent(),
		Format:  format,
		Events:  n,
		Parsed:  parsed,
		Payload: string(payload),
	})
	rc.metrics.Accepted(format, n)

	slog.Debug("receiver: payload stored",
		"client", r.UserAgent(),
		"format", format,
		"events", n,
		"bytes", len(payload),
	)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// Payloads handles GET /payloads with the live entries as a JSON array.
func (rc *Receiver) Payloads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rc.store.List()); err != nil {
		slog.Error("receiver: encode payloads", "err", err)
	}
}

func (rc *Receiver) reject(w http.ResponseWriter, reason string, code int) {
	rc.metrics.Rejected(reason)
	slog.Debug("receiver: request rejected", "reason", reason, "status", code)
	http.Error(w, reason, code)
}

func detectFormat(payload []byte) string {
	p := bytes.TrimLeft(payload, " \t\r\n")
	switch {
	case bytes.HasPrefix(p, []byte("<Events")):
		return FormatXML
	case bytes.HasPrefix(p, []byte("[")):
		return FormatJSON
	}
	return ""
}

// countEvents returns the number of events in payload and whether it parsed.
// Field values are sent unescaped, so a payload may legitimately fail to parse.
func countEvents(format string, payload []byte) (int, bool) {
	switch format {
	case FormatJSON:
		var events []json.RawMessage
		if err := json.Unmarshal(payload, &events); err != nil {
			return 0, false
		}
		return len(events), true
	case FormatXML:
		return countXMLEvents(payload)
	}
	return 0, false
}

// countXMLEvents counts <Event> elements that are direct children of <Events>.
func countXMLEvents(payload []byte) (int, bool) {
	dec := xml.NewDecoder(bytes.NewReader(payload))
	depth, n := 0, 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return n, depth == 0
		}
		if err != nil {
			return 0, false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && t.Name.Local == "Event" {
				n++
			}
		case xml.EndElement:
			depth--
		}
	}
}
