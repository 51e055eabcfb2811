package coincap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"coinboard/internal/provider"
)

var (
	// ErrTransport is wrapped by every failure to obtain a 2xx response.
	ErrTransport = errors.New("coincap: transport")
	// ErrDecode is wrapped when the body is not the expected envelope.
	ErrDecode = errors.New("coincap: decode")
)

// assetsResponse is the `{ "data": [...] }` envelope of GET /assets.
type assetsResponse struct {
	Data      []provider.Asset `json:"data"`
	Timestamp int64            `json:"timestamp"`
}

// Fetch implements provider.Provider. Concurrent callers share one request.
func (c *Client) Fetch(ctx context.Context) ([]provider.Asset, error) {
	v, err, _ := c.assets.Do("assets", func() (any, error) {
		return c.GetAssets(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]provider.Asset), nil
}

// GetAssets retrieves the asset list. It makes exactly one attempt.
func (c *Client) GetAssets(ctx context.Context) ([]provider.Asset, error) {
	req, err := c.get(ctx, "/assets")
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrTransport, err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: performing request: %w", ErrTransport, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:

	case res.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: rate limited", ErrTransport)

	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: GET %s -> %d: %s", ErrTransport, req.URL, res.StatusCode, string(b))
	}

	var body assetsResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding assets response: %w", ErrDecode, err)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("%w: response has no data field", ErrDecode)
	}

	return body.Data, nil
}
