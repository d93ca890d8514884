package transmit

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSPolicy controls how a server certificate is validated.
type TLSPolicy int

const (
	// Strict verifies the chain against system roots (plus an optional CA file).
	Strict TLSPolicy = iota
	// Permissive accepts any server certificate.
	Permissive
)

// PolicyFor maps the strict_tls flag to a policy.
func PolicyFor(strict bool) TLSPolicy {
	if strict {
		return Strict
	}
	return Permissive
}

func (p TLSPolicy) String() string {
	if p == Permissive {
		return "permissive"
	}
	return "strict"
}

// TLSConfig builds a fresh client TLS config for the policy. caFile is only
// consulted under Strict; an empty caFile means system roots only.
func (p TLSPolicy) TLSConfig(caFile string) (*tls.Config, error) {
	if p == Permissive {
		return &tls.Config{InsecureSkipVerify: true}, nil //nolint:gosec // user-configured
	}

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return tlsCfg, nil
	}

	caPEM, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("read ca file: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no valid certs in ca file %q", caFile)
	}
	tlsCfg.RootCAs = pool
	return tlsCfg, nil
}
