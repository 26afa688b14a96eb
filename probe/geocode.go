package probe

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prilive-com/giftrelay/internal/fetch"
)

// Address is the postal breakdown of a reverse-geocoded position.
type Address struct {
	Line       string
	City       string
	State      string
	PostalCode string
	Country    string
}

// GeocodeClient resolves coordinates to addresses via a reverse-geocoding
// service speaking the Nominatim query dialect.
type GeocodeClient struct {
	baseURL string
	httpc   *http.Client
}

// NewGeocodeClient creates a client for the given reverse-geocoding endpoint.
func NewGeocodeClient(baseURL string, httpc *http.Client) *GeocodeClient {
	return &GeocodeClient{baseURL: baseURL, httpc: httpc}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		Hamlet   string `json:"hamlet"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	} `json:"address"`
}

// Reverse resolves latitude/longitude to an Address.
func (c *GeocodeClient) Reverse(ctx context.Context, lat, lon float64) (*Address, error) {
	if c.baseURL == "" {
		return nil, ErrNoLookupURL
	}

	resp, err := fetch.JSON[reverseResponse](ctx, fetch.Params{
		URL:        c.baseURL,
		HTTPClient: c.httpc,
		Query: url.Values{
			"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
			"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
			"format":         {"jsonv2"},
			"zoom":           {"18"},
			"addressdetails": {"1"},
		},
	})
	if err != nil {
		return nil, err
	}

	addr := &Address{
		Line:       resp.DisplayName,
		State:      resp.Address.State,
		PostalCode: resp.Address.Postcode,
		Country:    resp.Address.Country,
	}
	// The service reports the locality under whichever granularity it has.
	for _, city := range []string{resp.Address.City, resp.Address.Town, resp.Address.Village, resp.Address.Hamlet} {
		if city != "" {
			addr.City = city
			break
		}
	}
	return addr, nil
}
