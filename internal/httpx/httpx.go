// Package httpx builds the shared HTTP client used to talk to upstreams.
package httpx

import (
	"net"
	"net/http"
	"time"
)

const UserAgent = "coinboard/1.0"

// New returns a client with tuned transport timeouts whose requests carry
// the coinboard User-Agent and any of headers they do not already set.
func New(timeout time.Duration, headers ...http.Header) *http.Client {
	base := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          2,
		MaxIdleConnsPerHost:   1,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	}

	defaults := http.Header{"User-Agent": {UserAgent}}
	for _, h := range headers {
		for k, v := range h {
			defaults[http.CanonicalHeaderKey(k)] = v
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &defaultHeaders{next: base, header: defaults},
	}
}

type defaultHeaders struct {
	next   http.RoundTripper
	header http.Header
}

func (d *defaultHeaders) RoundTrip(req *http.Request) (*http.Response, error) {
	var r *http.Request
	for k, v := range d.header {
		if req.Header.Get(k) != "" {
			continue
		}
		// a RoundTripper must not modify the caller's request
		if r == nil {
			r = req.Clone(req.Context())
		}
		r.Header[k] = v
	}
	if r == nil {
		r = req
	}
	return d.next.RoundTrip(r)
}
