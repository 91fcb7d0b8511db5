package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ngmaloney/natal-terminal/internal/coords"
	"github.com/ngmaloney/natal-terminal/internal/geocoding"
	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/tzlookup"
)

// Geocoder resolves a birthplace to coordinates
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*geocoding.Location, error)
}

// ZoneResolver resolves coordinates to a time-zone id
type ZoneResolver interface {
	Lookup(ctx context.Context, lat, lon float64) (tzlookup.Match, error)
}

// Input is birth data as typed by a user. Latitude and Longitude may be
// left empty when Place can be geocoded; TimeZone may be left empty when
// it can be resolved from the coordinates.
type Input struct {
	Name        string
	Date        string
	Time        string
	TimeZone    string
	Place       string
	Latitude    string
	Longitude   string
	HouseSystem string
}

// Service orchestrates profile operations
type Service struct {
	repo     *Repository
	geocoder Geocoder
	zones    ZoneResolver
	logger   *zap.Logger
}

// NewService creates a profile service. geocoder and zones may be nil,
// in which case coordinates and time zone must be given explicitly.
func NewService(repo *Repository, geocoder Geocoder, zones ZoneResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, geocoder: geocoder, zones: zones, logger: logger}
}

// Resolve turns user input into a validated profile without saving it
func (s *Service) Resolve(ctx context.Context, in Input) (*models.Profile, error) {
	civil, err := models.ParseCivil(in.Date, in.Time)
	if err != nil {
		return nil, err
	}

	p := &models.Profile{
		Name:      strings.TrimSpace(in.Name),
		BirthDate: fmt.Sprintf("%04d-%02d-%02d", civil.Year, civil.Month, civil.Day),
		BirthTime: fmt.Sprintf("%02d:%02d:%02d", civil.Hour, civil.Minute, int(civil.Second)),
		Place:     strings.TrimSpace(in.Place),
	}

	// 1. Coordinates: typed values win over the geocoder
	switch {
	case strings.TrimSpace(in.Latitude) != "" || strings.TrimSpace(in.Longitude) != "":
		if p.Latitude, err = coords.ParseLatitude(in.Latitude); err != nil {
			return nil, err
		}
		if p.Longitude, err = coords.ParseLongitude(in.Longitude); err != nil {
			return nil, err
		}
	case p.Place != "" && s.geocoder != nil:
		loc, err := s.geocoder.Geocode(ctx, p.Place)
		if err != nil {
			return nil, fmt.Errorf("geocoding %q: %w", p.Place, err)
		}
		p.Latitude, p.Longitude = loc.Latitude, loc.Longitude
		if loc.Name != "" {
			p.Place = loc.Name
		}
		s.logger.Debug("geocoded birthplace",
			zap.String("place", p.Place),
			zap.Float64("latitude", p.Latitude),
			zap.Float64("longitude", p.Longitude))
	default:
		return nil, fmt.Errorf("a birthplace or coordinates are required: %w", models.ErrInvalidCoordinate)
	}

	// 2. Time zone: typed value wins over the boundary lookup
	p.TimeZone = strings.TrimSpace(in.TimeZone)
	if p.TimeZone == "" {
		if s.zones == nil {
			return nil, fmt.Errorf("a time zone is required: %w", models.ErrInvalidDate)
		}
		m, err := s.zones.Lookup(ctx, p.Latitude, p.Longitude)
		if errors.Is(err, tzlookup.ErrNotProvisioned) {
			return nil, fmt.Errorf("a time zone is required until boundaries are provisioned: %w", models.ErrInvalidDate)
		}
		if err != nil {
			return nil, fmt.Errorf("resolving time zone: %w", err)
		}
		if m.Nautical {
			s.logger.Warn("birthplace outside every zone polygon, using nautical time",
				zap.String("tzid", m.TZID))
		}
		p.TimeZone = m.TZID
	}

	// 3. House system
	if sys := strings.TrimSpace(in.HouseSystem); sys != "" {
		system, err := houses.ParseSystem(sys)
		if err != nil {
			return nil, err
		}
		p.HouseSystem = system.String()
	}

	// 4. Everything must resolve to a birth moment
	if _, err := p.BirthMoment(); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProfile resolves and saves a profile
func (s *Service) CreateProfile(ctx context.Context, in Input) (*models.Profile, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("profile name cannot be empty")
	}

	p, err := s.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("saved profile", zap.String("name", p.Name), zap.String("time_zone", p.TimeZone))
	return p, nil
}

func (s *Service) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetProfile(ctx context.Context, name string) (models.Profile, error) {
	return s.repo.Get(ctx, name)
}

func (s *Service) DeleteProfile(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, name)
}
