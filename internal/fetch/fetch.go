// Package fetch provides a small helper for JSON-over-HTTP GET requests.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxBodySize bounds lookup-service responses; these services return a few
// hundred bytes of JSON at most.
const maxBodySize = 1 << 20 // 1MB

// DefaultClient is the http.Client used when Params.HTTPClient is nil.
var DefaultClient = &http.Client{
	Timeout: 10 * time.Second,
}

// Params describes one GET request.
type Params struct {
	// URL is the target URL of the request.
	URL string
	// Query is appended to the URL's query string.
	Query url.Values
	// Headers is a map of additional request headers.
	Headers map[string]string
	// HTTPClient optionally overrides DefaultClient.
	HTTPClient *http.Client
}

// JSON issues a GET request and unmarshals the JSON response body into the
// requested type. Any non-2xx status is an error.
func JSON[Response any](ctx context.Context, p Params) (Response, error) {
	var resp Response

	target := p.URL
	if len(p.Query) > 0 {
		u, err := url.Parse(p.URL)
		if err != nil {
			return resp, fmt.Errorf("fetch: invalid URL %q: %w", p.URL, err)
		}
		q := u.Query()
		for k, vs := range p.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return resp, fmt.Errorf("fetch: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	httpc := DefaultClient
	if p.HTTPClient != nil {
		httpc = p.HTTPClient
	}

	res, err := httpc.Do(req)
	if err != nil {
		return resp, fmt.Errorf("fetch: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return resp, fmt.Errorf("fetch: reading %q: %w", p.URL, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return resp, fmt.Errorf("fetch: GET %q: lookup failed with status %d", p.URL, res.StatusCode)
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return resp, fmt.Errorf("fetch: decoding %q: %w", p.URL, err)
	}

	return resp, nil
}
