package geo

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
)

// politeTransport wraps an http.RoundTripper. It adds the User-Agent header the
// public Nominatim usage policy asks for and waits for the rate limiter before
// every request.
type politeTransport struct {
	base      http.RoundTripper
	userAgent string
	limiter   *rate.Limiter
}

// RoundTrip executes a single HTTP transaction.
func (t *politeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for geocoder rate limit: %w", err)
	}
	// Clone the request to avoid modifying the original
	cloned := req.Clone(req.Context())
	cloned.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(cloned)
}

// wrapClient returns a copy of c whose requests go through a politeTransport.
func wrapClient(c *http.Client, userAgent string, limiter *rate.Limiter) *http.Client {
	wrapped := *c
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped.Transport = &politeTransport{base: base, userAgent: userAgent, limiter: limiter}
	return &wrapped
}
