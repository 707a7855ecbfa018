package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultGoogleURL is the Google Maps Geocoding API endpoint.
const DefaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// ErrMissingAPIKey is returned when the Google provider is chosen without a key.
var ErrMissingAPIKey = errors.New("GOOGLE_MAPS_API_KEY is required for the google provider")

// GoogleClient wraps the Google Maps Geocoding API as an alternative to
// Nominatim. It satisfies Searcher.
type GoogleClient struct {
	baseURL    string
	apiKey     string
	country    string
	httpClient *http.Client
}

func NewGoogleClient(baseURL, apiKey, country string, timeout time.Duration) (*GoogleClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if country == "" {
		country = DefaultCountry
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GoogleClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		country:    country,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type googleResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	AddressComponents []addressComponent `json:"address_components"`
	FormattedAddress  string             `json:"formatted_address"`
	Geometry          struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// Search returns up to limit results, with Region set to the state.
func (c *GoogleClient) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("components", "country:"+strings.ToUpper(c.country))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode)
	}

	var geoResp googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch geoResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("geocoding failed: status=%s", geoResp.Status)
	}

	var out []Candidate
	for _, r := range geoResp.Results {
		if limit > 0 && len(out) == limit {
			break
		}
		cand := Candidate{
			Lat:         r.Geometry.Location.Lat,
			Lon:         r.Geometry.Location.Lng,
			DisplayName: r.FormattedAddress,
		}
		for _, comp := range r.AddressComponents {
			for _, t := range comp.Types {
				if t == "administrative_area_level_1" {
					cand.Region = comp.ShortName
				}
			}
		}
		out = append(out, cand)
	}
	return out, nil
}
