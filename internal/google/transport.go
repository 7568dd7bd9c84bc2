package google

import (
	"crypto/tls"
	"log/slog"
	"net/http"
)

// NewTransport returns the base transport for Google API calls.
// The transport is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func NewTransport(insecureSkipVerify bool) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ForceAttemptHTTP2 = false

	if insecureSkipVerify {
		slog.Warn("TLS certificate verification disabled - use only against trusted development endpoints",
			"component", "google",
		)
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // explicit opt-in
		}
	}

	return transport
}
