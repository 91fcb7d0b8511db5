package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ngmaloney/natal-terminal/internal/aspects"
	"github.com/ngmaloney/natal-terminal/internal/database"
	"github.com/ngmaloney/natal-terminal/internal/houses"
)

// Ephemeris sources
const (
	SourceAnalytic = "analytic"
	SourceTable    = "table"
	SourceHTTP     = "http"
)

// Config holds the natal-terminal configuration.
type Config struct {
	// Storage
	DataDir string `env:"NATAL_DATA_DIR" envDefault:"data"`

	// Chart
	HouseSystem string `env:"NATAL_HOUSE_SYSTEM" envDefault:"placidus"`
	PolarPolicy string `env:"NATAL_POLAR_POLICY" envDefault:"fallback"`

	// Ephemeris
	EphemerisSource    string `env:"NATAL_EPHEMERIS_SOURCE" envDefault:"analytic"`
	EphemerisURL       string `env:"NATAL_EPHEMERIS_URL"`
	EphemerisTimeoutMS int    `env:"NATAL_EPHEMERIS_TIMEOUT_MS" envDefault:"5000"`
	TableStartYear     int    `env:"NATAL_TABLE_START_YEAR" envDefault:"1900"`
	TableEndYear       int    `env:"NATAL_TABLE_END_YEAR" envDefault:"2100"`

	// Orbs
	OrbConjunction float64 `env:"NATAL_ORB_CONJUNCTION" envDefault:"8"`
	OrbOpposition  float64 `env:"NATAL_ORB_OPPOSITION" envDefault:"8"`
	OrbTrine       float64 `env:"NATAL_ORB_TRINE" envDefault:"8"`
	OrbSquare      float64 `env:"NATAL_ORB_SQUARE" envDefault:"8"`
	OrbSextile     float64 `env:"NATAL_ORB_SEXTILE" envDefault:"6"`
	OrbQuincunx    float64 `env:"NATAL_ORB_QUINCUNX" envDefault:"3"`
	OrbSemisextile float64 `env:"NATAL_ORB_SEMISEXTILE" envDefault:"3"`
	TightOrb       float64 `env:"NATAL_TIGHT_ORB" envDefault:"1"`
	MediumOrb      float64 `env:"NATAL_MEDIUM_ORB" envDefault:"3"`
	WideOrb        float64 `env:"NATAL_WIDE_ORB" envDefault:"8"`

	// Server
	HTTPAddr         string `env:"NATAL_HTTP_ADDR" envDefault:":8080"`
	RequestTimeoutMS int    `env:"NATAL_REQUEST_TIMEOUT_MS" envDefault:"10000"`

	// Geocoding
	NominatimURL string `env:"NATAL_NOMINATIM_URL" envDefault:"https://nominatim.openstreetmap.org/search"`

	// Observability
	LogLevel string `env:"NATAL_LOG_LEVEL" envDefault:"info"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}
	return cfg, nil
}

// Validate normalizes case-insensitive values in place and validates the configuration.
func (c *Config) Validate() error {
	c.EphemerisSource = strings.ToLower(strings.TrimSpace(c.EphemerisSource))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	if _, err := houses.ParseSystem(c.HouseSystem); err != nil {
		return err
	}
	if _, err := houses.ParsePolarPolicy(c.PolarPolicy); err != nil {
		return err
	}

	switch c.EphemerisSource {
	case SourceAnalytic, SourceTable:
	case SourceHTTP:
		if c.EphemerisURL == "" {
			return fmt.Errorf("NATAL_EPHEMERIS_URL is required when the ephemeris source is http")
		}
	default:
		return fmt.Errorf("invalid ephemeris source: %s", c.EphemerisSource)
	}

	if c.EphemerisTimeoutMS < 1 {
		return fmt.Errorf("ephemeris timeout must be at least 1ms, got %dms", c.EphemerisTimeoutMS)
	}
	if c.RequestTimeoutMS < 1 {
		return fmt.Errorf("request timeout must be at least 1ms, got %dms", c.RequestTimeoutMS)
	}
	if c.TableEndYear < c.TableStartYear {
		return fmt.Errorf("table end year %d is before start year %d", c.TableEndYear, c.TableStartYear)
	}

	if err := c.AspectConfig().Validate(); err != nil {
		return err
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

// DBPath returns the shared database path inside DataDir.
func (c *Config) DBPath() string {
	return database.DBPath(c.DataDir)
}

// EphemerisTimeout returns the ephemeris timeout as a time.Duration.
func (c *Config) EphemerisTimeout() time.Duration {
	return time.Duration(c.EphemerisTimeoutMS) * time.Millisecond
}

// RequestTimeout returns the HTTP request timeout as a time.Duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// System returns the parsed default house system.
func (c *Config) System() houses.System {
	s, err := houses.ParseSystem(c.HouseSystem)
	if err != nil {
		return houses.Placidus
	}
	return s
}

// Policy returns the parsed polar policy.
func (c *Config) Policy() houses.PolarPolicy {
	p, err := houses.ParsePolarPolicy(c.PolarPolicy)
	if err != nil {
		return houses.PolarFallback
	}
	return p
}

// AspectConfig returns the orb table.
func (c *Config) AspectConfig() aspects.Config {
	return aspects.Config{
		Orbs: map[aspects.Type]float64{
			aspects.Conjunction: c.OrbConjunction,
			aspects.Opposition:  c.OrbOpposition,
			aspects.Trine:       c.OrbTrine,
			aspects.Square:      c.OrbSquare,
			aspects.Sextile:     c.OrbSextile,
			aspects.Quincunx:    c.OrbQuincunx,
			aspects.Semisextile: c.OrbSemisextile,
		},
		TightOrb:  c.TightOrb,
		MediumOrb: c.MediumOrb,
		WideOrb:   c.WideOrb,
	}
}
