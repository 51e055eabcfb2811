// Package coincap fetches the asset list from the CoinCap REST API.
package coincap

import (
	"context"
	"net/http"

	"golang.org/x/sync/singleflight"
)

const DefaultBaseURL = "https://api.coincap.io/v2"

// HTTPClient is the subset of *http.Client the client needs.
//
//go:generate mockgen -package=coincap_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one CoinCap deployment. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    HTTPClient
	header  http.Header // sent on every request; cloned per request

	assets singleflight.Group
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) { c.http = hc }
}

// WithHeader adds header to every request. A key already set, such as the
// default JSON Accept, is replaced.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for k, v := range header {
			c.header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    http.DefaultClient,
		header:  http.Header{"Accept": {"application/json"}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "CoinCap" }

// get builds a GET for path carrying the client's headers.
func (c *Client) get(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header = c.header.Clone()
	return req, nil
}
