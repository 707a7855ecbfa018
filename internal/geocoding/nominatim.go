package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the public OpenStreetMap Nominatim search endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org/search"

	// DefaultUserAgent identifies this project to Nominatim, which rejects anonymous clients.
	DefaultUserAgent = "Pinkerton-Detectives-Project/1.0"

	// DefaultCountry restricts searches server-side.
	DefaultCountry = "us"

	// CandidateLimit is how many ranked results are requested per query.
	CandidateLimit = 5
)

// Candidate is one ranked search hit.
type Candidate struct {
	Lat         float64
	Lon         float64
	Region      string // administrative region (US state), as returned
	DisplayName string
}

// Searcher performs one outbound text search.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// Client wraps the Nominatim search API.
type Client struct {
	baseURL    string
	userAgent  string
	country    string
	httpClient *http.Client
}

// NewClient creates a Nominatim client. Empty arguments fall back to the defaults.
func NewClient(baseURL, userAgent, country string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if country == "" {
		country = DefaultCountry
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		country:   country,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type searchResult struct {
	Lat         string        `json:"lat"`
	Lon         string        `json:"lon"`
	DisplayName string        `json:"display_name"`
	Address     searchAddress `json:"address"`
}

type searchAddress struct {
	State string `json:"state"`
}

// Search runs a free-text query and returns candidates in server rank order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")
	params.Set("countrycodes", c.country)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	out := make([]Candidate, 0, len(results))
	for i, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("result %d: bad lat %q: %w", i, r.Lat, err)
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("result %d: bad lon %q: %w", i, r.Lon, err)
		}
		out = append(out, Candidate{
			Lat:         lat,
			Lon:         lon,
			Region:      r.Address.State,
			DisplayName: r.DisplayName,
		})
	}
	return out, nil
}
