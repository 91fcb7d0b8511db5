package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ngmaloney/natal-terminal/internal/chart"
	"github.com/ngmaloney/natal-terminal/internal/ephemeris"
	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/instrumentation"
	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/profiles"
)

// stuckProvider blocks until its context ends
type stuckProvider struct{}

func (stuckProvider) Position(ctx context.Context, _ julian.Day, _ ephemeris.Body) (ephemeris.Position, error) {
	<-ctx.Done()
	return ephemeris.Position{}, ctx.Err()
}

func newTestServer(t *testing.T, mutate func(*Options)) *httptest.Server {
	t.Helper()
	provider := ephemeris.NewAnalytic()
	opts := Options{
		Calculator:     chart.NewCalculator(provider, chart.DefaultOptions()),
		Provider:       provider,
		DefaultSystem:  houses.Placidus,
		RequestTimeout: time.Second,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string, params url.Values) (*http.Response, []byte) {
	t.Helper()
	u := ts.URL + path
	if params != nil {
		u += "?" + params.Encode()
	}
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func chartParams() url.Values {
	return url.Values{
		"date": {"2000-01-01"},
		"time": {"12:00"},
		"tz":   {"UTC"},
		"lat":  {"51.4769"},
		"lon":  {"0"},
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, body := get(t, ts, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestChart(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := get(t, ts, "/v1/chart", chartParams())
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var summary chart.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.InDelta(t, 2451545.0, summary.JulianDay, 1e-9)
	assert.Equal(t, "placidus", summary.HouseSystem)
	assert.Equal(t, "Capricorn", summary.SunSign)
	assert.Equal(t, "Scorpio", summary.MoonSign)
	assert.Equal(t, "Aries", summary.RisingSign)
	assert.Len(t, summary.Bodies, len(ephemeris.Bodies()))
	assert.Len(t, summary.Houses, 12)
}

func TestChart_LocalZoneAndSystem(t *testing.T) {
	ts := newTestServer(t, nil)

	params := url.Values{
		"date":   {"2000-01-01"},
		"time":   {"07:00"},
		"tz":     {"America/New_York"},
		"lat":    {"40°42'46\"N"},
		"lon":    {"74°00'22\"W"},
		"system": {"whole-sign"},
	}
	resp, body := get(t, ts, "/v1/chart", params)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var summary chart.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	// 07:00 EST is J2000.0
	assert.InDelta(t, 2451545.0, summary.JulianDay, 1e-6)
	assert.Equal(t, "whole-sign", summary.HouseSystem)
	for _, h := range summary.Houses {
		assert.InDelta(t, 0, h.Degrees, 1e-9, "whole-sign cusp %d", h.House)
	}
}

func TestChart_Errors(t *testing.T) {
	strict := func(o *Options) {
		opts := chart.DefaultOptions()
		opts.Policy = houses.PolarStrict
		o.Calculator = chart.NewCalculator(ephemeris.NewAnalytic(), opts)
	}
	missingBodies := func(o *Options) {
		o.Calculator = chart.NewCalculator(ephemeris.NewFixed(map[ephemeris.Body]float64{ephemeris.Sun: 10}), chart.DefaultOptions())
	}

	tests := []struct {
		name     string
		mutate   func(*Options)
		set      map[string]string
		del      string
		status   int
		wantCode models.ErrorCode
	}{
		{"impossible date", nil, map[string]string{"date": "2001-02-29"}, "", http.StatusBadRequest, models.CodeInvalidDate},
		{"bad clock", nil, map[string]string{"time": "25:00"}, "", http.StatusBadRequest, models.CodeInvalidDate},
		{"unknown zone", nil, map[string]string{"tz": "Mars/Olympus"}, "", http.StatusBadRequest, models.CodeInvalidDate},
		{"latitude out of range", nil, map[string]string{"lat": "95"}, "", http.StatusBadRequest, models.CodeInvalidCoordinate},
		{"missing longitude", nil, nil, "lon", http.StatusBadRequest, models.CodeInvalidCoordinate},
		{"unknown system", nil, map[string]string{"system": "regiomontanus"}, "", http.StatusBadRequest, CodeInvalidParameter},
		{"polar strict", strict, map[string]string{"lat": "70"}, "", http.StatusUnprocessableEntity, models.CodeHouseSystemUndefined},
		{"provider missing bodies", missingBodies, nil, "", http.StatusServiceUnavailable, models.CodeEphemerisUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.mutate)
			params := chartParams()
			for k, v := range tt.set {
				params.Set(k, v)
			}
			if tt.del != "" {
				params.Del(tt.del)
			}

			resp, body := get(t, ts, "/v1/chart", params)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))

			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, tt.wantCode, errResp.Code)
			assert.NotEmpty(t, errResp.Message)
			assert.Equal(t, resp.Header.Get(RequestIDHeader), errResp.RequestID)
		})
	}
}

func TestChart_PolarFallbackFlagged(t *testing.T) {
	ts := newTestServer(t, nil)
	params := chartParams()
	params.Set("lat", "70")

	resp, body := get(t, ts, "/v1/chart", params)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var summary chart.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.True(t, summary.Fallback)
	assert.Equal(t, "equal", summary.HouseSystem)
	assert.Equal(t, "placidus", summary.RequestedSystem)
}

func TestChart_RequestTimeout(t *testing.T) {
	ts := newTestServer(t, func(o *Options) {
		o.Calculator = chart.NewCalculator(stuckProvider{}, chart.DefaultOptions())
		o.RequestTimeout = 50 * time.Millisecond
	})

	start := time.Now()
	resp, _ := get(t, ts, "/v1/chart", chartParams())
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRequestID_Propagated(t *testing.T) {
	ts := newTestServer(t, nil)

	req, err := http.NewRequest("GET", ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestEphemeris(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, body := get(t, ts, "/v1/ephemeris", url.Values{"jd": {"2451545"}, "body": {"Sun"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var pos PositionResponse
	require.NoError(t, json.Unmarshal(body, &pos))
	assert.Equal(t, "sun", pos.Body)
	assert.InDelta(t, 280.4, pos.Longitude, 0.1)
	assert.Equal(t, "Capricorn", pos.Sign)
	assert.False(t, pos.Retrograde)

	resp, _ = get(t, ts, "/v1/ephemeris", url.Values{"jd": {"noon"}, "body": {"sun"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = get(t, ts, "/v1/ephemeris", url.Values{"jd": {"2451545"}, "body": {"vulcan"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEphemeris_Unavailable(t *testing.T) {
	ts := newTestServer(t, func(o *Options) {
		o.Provider = ephemeris.NewFixed(map[ephemeris.Body]float64{ephemeris.Sun: 10})
	})

	resp, body := get(t, ts, "/v1/ephemeris", url.Values{"jd": {"2451545"}, "body": {"moon"}})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), string(models.CodeEphemerisUnavailable))
}

type nanProvider struct{}

func (nanProvider) Position(ctx context.Context, jd julian.Day, body ephemeris.Body) (ephemeris.Position, error) {
	return ephemeris.Position{Body: body, Longitude: math.NaN()}, nil
}

func TestEphemeris_NonFiniteDay(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, jd := range []string{"NaN", "Inf", "-Inf"} {
		resp, body := get(t, ts, "/v1/ephemeris", url.Values{"jd": {jd}, "body": {"sun"}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "jd=%s", jd)

		var e ErrorResponse
		require.NoError(t, json.Unmarshal(body, &e), "jd=%s body=%q", jd, body)
		assert.Equal(t, models.CodeInvalidDate, e.Code)
	}

	// A finite but absurd day must still produce a JSON body
	resp, body := get(t, ts, "/v1/ephemeris", url.Values{"jd": {"1e300"}, "body": {"sun"}})
	require.NotEmpty(t, body)
	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		require.NoError(t, json.Unmarshal(body, &e))
		assert.Equal(t, models.CodeEphemerisUnavailable, e.Code)
	}
}

func TestEphemeris_NonFinitePosition(t *testing.T) {
	ts := newTestServer(t, func(o *Options) { o.Provider = nanProvider{} })

	resp, body := get(t, ts, "/v1/ephemeris", url.Values{"jd": {"2451545"}, "body": {"sun"}})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), string(models.CodeEphemerisUnavailable))
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	s, err := New(Options{
		Calculator: chart.NewCalculator(ephemeris.NewAnalytic(), chart.DefaultOptions()),
		Provider:   ephemeris.NewAnalytic(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, map[string]float64{"longitude": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, models.CodeInternal, e.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	ts := newTestServer(t, func(o *Options) {
		o.Metrics = instrumentation.NewMetrics(reg)
		o.Gatherer = reg
	})

	get(t, ts, "/v1/chart", chartParams())
	params := chartParams()
	params.Set("date", "bad")
	get(t, ts, "/v1/chart", params)

	resp, body := get(t, ts, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.Contains(t, text, `natal_http_requests_total{route="/v1/chart",status="2xx"} 1`)
	assert.Contains(t, text, `natal_http_requests_total{route="/v1/chart",status="4xx"} 1`)
	assert.Contains(t, text, `natal_errors_total{code="INVALID_DATE",component="server"} 1`)
}

func TestMetricsEndpoint_DisabledWithoutGatherer(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, _ := get(t, ts, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfiles(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	defer db.Close()

	repo, err := profiles.NewRepository(db)
	require.NoError(t, err)
	svc := profiles.NewService(repo, nil, nil, nil)
	_, err = svc.CreateProfile(context.Background(), profiles.Input{
		Name: "J2000", Date: "2000-01-01", Time: "12:00", TimeZone: "UTC",
		Latitude: "51.4769", Longitude: "0", HouseSystem: "koch",
	})
	require.NoError(t, err)

	ts := newTestServer(t, func(o *Options) { o.Profiles = svc })

	resp, body := get(t, ts, "/v1/profiles", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `"name":"J2000"`), string(body))

	resp, body = get(t, ts, "/v1/profiles/J2000/chart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var summary chart.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, "koch", summary.HouseSystem)
	assert.Equal(t, "Capricorn", summary.SunSign)

	resp, body = get(t, ts, "/v1/profiles/J2000/chart", url.Values{"system": {"equal"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, "equal", summary.HouseSystem)

	resp, _ = get(t, ts, "/v1/profiles/Nobody/chart", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusOf(t *testing.T) {
	tests := map[models.ErrorCode]int{
		models.CodeInvalidDate:          http.StatusBadRequest,
		models.CodeInvalidCoordinate:    http.StatusBadRequest,
		models.CodeHouseSystemUndefined: http.StatusUnprocessableEntity,
		models.CodeEphemerisUnavailable: http.StatusServiceUnavailable,
		models.CodeInternal:             http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusOf(code), string(code))
	}
}
