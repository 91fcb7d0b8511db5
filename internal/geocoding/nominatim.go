package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ngmaloney/natal-terminal/internal/models"
)

const (
	// DefaultNominatimURL is the public OpenStreetMap search endpoint
	DefaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	userAgent           = "NatalTerminal/1.0" // Required by Nominatim ToS
)

// NominatimClient searches OpenStreetMap's Nominatim service
type NominatimClient struct {
	baseURL     string
	httpClient  *http.Client
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewNominatimClient creates a client for baseURL. Requests are spaced at
// least one second apart as the public service's usage policy requires.
func NewNominatimClient(baseURL string, timeout time.Duration) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimClient{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: timeout},
		minInterval: time.Second,
	}
}

// nominatimResponse represents the Nominatim API response
type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search returns the best match for a free-form place query
func (c *NominatimClient) Search(ctx context.Context, query string) (*Location, error) {
	params := url.Values{}
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("q", query)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim API returned status %d", resp.StatusCode)
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no results found for '%s': %w", query, ErrNotFound)
	}

	result := results[0]
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude %q: %w", result.Lat, models.ErrInvalidCoordinate)
	}
	if err := models.ValidateLatitude(lat); err != nil {
		return nil, err
	}
	lon, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude %q: %w", result.Lon, models.ErrInvalidCoordinate)
	}
	if lon, err = models.NormalizeLongitude(lon); err != nil {
		return nil, err
	}

	return &Location{
		Latitude:  lat,
		Longitude: lon,
		Name:      result.DisplayName,
	}, nil
}

// wait blocks until minInterval has passed since the previous call
func (c *NominatimClient) wait(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastCall.IsZero() {
		if delay := c.minInterval - time.Since(c.lastCall); delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	c.lastCall = time.Now()
	return nil
}
