package ephemeris

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// HTTPClient fetches positions from a remote ephemeris service
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type positionResponse struct {
	Longitude *float64 `json:"longitude"`
	Speed     float64  `json:"speed"`
}

// NewHTTPClient creates a remote ephemeris client
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Position implements Provider
func (c *HTTPClient) Position(ctx context.Context, jd julian.Day, body Body) (Position, error) {
	params := url.Values{}
	params.Add("jd", strconv.FormatFloat(float64(jd), 'f', -1, 64))
	params.Add("body", body.Key())

	requestURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return Position{}, fmt.Errorf("creating ephemeris request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("fetching %s: %v: %w", body, err, models.ErrEphemerisUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("ephemeris service returned status %d for %s: %w", resp.StatusCode, body, models.ErrEphemerisUnavailable)
	}

	var posResp positionResponse
	if err := json.NewDecoder(resp.Body).Decode(&posResp); err != nil {
		return Position{}, fmt.Errorf("decoding %s position: %v: %w", body, err, models.ErrEphemerisUnavailable)
	}
	if posResp.Longitude == nil {
		return Position{}, fmt.Errorf("ephemeris response for %s has no longitude: %w", body, models.ErrEphemerisUnavailable)
	}

	return Position{
		Body:      body,
		Longitude: zodiac.Normalize(*posResp.Longitude),
		Speed:     posResp.Speed,
	}, nil
}
