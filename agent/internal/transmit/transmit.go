package transmit

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultTimeout applies when Config.Timeout is not positive.
	DefaultTimeout = 25 * time.Second

	formField   = "data"
	contentType = "application/x-www-form-urlencoded"

	// maxLoggedBody caps how much of a response is kept for the debug log.
	maxLoggedBody = 64 << 10
)

// Config is the per-send transmission snapshot. It is read, never retained.
type Config struct {
	// Endpoint is the full URL of the collection endpoint.
	Endpoint string

	// UserAgent is sent verbatim in the User-Agent header.
	UserAgent string

	// Timeout bounds the whole exchange: dial, TLS, write and response read.
	Timeout time.Duration

	// StrictTLS selects certificate validation. False accepts any certificate.
	StrictTLS bool

	// CAFile optionally adds a PEM root CA under strict validation.
	CAFile string
}

// Transmitter sends payloads. It holds no per-send state and is safe for
// concurrent use.
type Transmitter struct {
	logger *slog.Logger
}

// New returns a Transmitter that reports through logger, or slog.Default()
// when logger is nil.
func New(logger *slog.Logger) *Transmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transmitter{logger: logger}
}

// Send delivers payload to cfg.Endpoint once. It blocks until the exchange
// finishes or fails. Failures are logged and swallowed.
func (t *Transmitter) Send(ctx context.Context, payload string, cfg Config) {
	status, n, err := t.deliver(ctx, payload, cfg)
	if err != nil {
		t.logger.Error("transmit: send failed",
			"endpoint", cfg.Endpoint,
			"tls", PolicyFor(cfg.StrictTLS).String(),
			"err", err)
		return
	}
	t.logger.Debug("transmit: payload delivered",
		"endpoint", cfg.Endpoint,
		"status", status,
		"response_bytes", n)
}

// deliver performs the exchange and returns the response status and the
// number of response bytes drained.
func (t *Transmitter) deliver(ctx context.Context, payload string, cfg Config) (int, int64, error) {
	client, err := newClient(cfg)
	if err != nil {
		return 0, 0, fmt.Errorf("build client: %w", err)
	}

	body := []byte(formField + "=" + payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Close = true

	t.logger.Debug("transmit: posting payload", "endpoint", cfg.Endpoint, "payload", payload)

	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if t.logger.Enabled(ctx, slog.LevelDebug) {
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		if err != nil {
			return resp.StatusCode, int64(len(raw)), fmt.Errorf("read response: %w", err)
		}
		rest, err := io.Copy(io.Discard, resp.Body)
		t.logger.Debug("transmit: response body",
			"status", resp.StatusCode,
			"body", string(raw),
			"truncated", rest > 0,
		)
		n := int64(len(raw)) + rest
		if err != nil {
			return resp.StatusCode, n, fmt.Errorf("read response: %w", err)
		}
		return resp.StatusCode, n, nil
	}

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return resp.StatusCode, n, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, n, nil
}

// newClient builds a single-use client for cfg: its own transport, no
// connection reuse, HTTP/1.x only.
func newClient(cfg Config) (*http.Client, error) {
	tlsCfg, err := PolicyFor(cfg.StrictTLS).TLSConfig(cfg.CAFile)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		TLSClientConfig:   tlsCfg,
		DisableKeepAlives: true,
		// A non-nil empty map disables HTTP/2 negotiation.
		TLSNextProto: map[string]func(string, *tls.Conn) http.RoundTripper{},
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}
