package probe

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prilive-com/giftrelay/internal/fetch"
)

// ErrNoLookupURL is returned by a probe whose service URL is unset.
var ErrNoLookupURL = errors.New("probe: lookup URL not configured")

// IPGeo is what an IP-geolocation service knows about the caller. It is an
// approximate, network-derived position; no permission prompt is involved.
type IPGeo struct {
	IP          string  `json:"ip"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	CountryName string  `json:"country_name"`
	Postal      string  `json:"postal"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	Org         string  `json:"org"`
}

// IPClient queries public IP services: a plain address echo and an
// IP-geolocation lookup used as the fallback when device geolocation fails.
type IPClient struct {
	echoURL string
	geoURL  string
	httpc   *http.Client
	logger  *slog.Logger
}

// IPOption configures the IPClient.
type IPOption func(*IPClient)

// WithIPHTTPClient sets a custom HTTP client.
func WithIPHTTPClient(httpc *http.Client) IPOption {
	return func(c *IPClient) { c.httpc = httpc }
}

// WithIPLogger sets a custom logger.
func WithIPLogger(logger *slog.Logger) IPOption {
	return func(c *IPClient) { c.logger = logger }
}

// NewIPClient creates a client for the given echo and geolocation endpoints.
// Either URL may be empty; the corresponding probe then reports
// ErrNoLookupURL.
func NewIPClient(echoURL, geoURL string, opts ...IPOption) *IPClient {
	c := &IPClient{echoURL: echoURL, geoURL: geoURL}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

type ipEchoResponse struct {
	IP string `json:"ip"`
}

// PublicIP returns the caller's public IP address.
func (c *IPClient) PublicIP(ctx context.Context) (string, error) {
	if c.echoURL == "" {
		return "", ErrNoLookupURL
	}
	resp, err := fetch.JSON[ipEchoResponse](ctx, fetch.Params{
		URL:        c.echoURL,
		HTTPClient: c.httpc,
	})
	if err != nil {
		return "", err
	}
	return resp.IP, nil
}

// GeoByIP returns the approximate location the geolocation service derives
// from the caller's IP address.
func (c *IPClient) GeoByIP(ctx context.Context) (*IPGeo, error) {
	if c.geoURL == "" {
		return nil, ErrNoLookupURL
	}
	resp, err := fetch.JSON[IPGeo](ctx, fetch.Params{
		URL:        c.geoURL,
		HTTPClient: c.httpc,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
