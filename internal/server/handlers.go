package server

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ngmaloney/natal-terminal/internal/coords"
	"github.com/ngmaloney/natal-terminal/internal/ephemeris"
	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/julian"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/profiles"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// handleChart serves GET /v1/chart?date=&time=&tz=&lat=&lon=&system=
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	system, err := s.system(q.Get("system"))
	if err != nil {
		s.writeError(w, r, CodeInvalidParameter, err)
		return
	}

	civil, err := models.ParseCivil(q.Get("date"), q.Get("time"))
	if err != nil {
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}

	tz := q.Get("tz")
	if tz == "" {
		tz = "UTC"
	}
	loc, err := models.ParseZone(tz)
	if err != nil {
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}

	if q.Get("lat") == "" || q.Get("lon") == "" {
		err := fmt.Errorf("lat and lon are required: %w", models.ErrInvalidCoordinate)
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}
	lat, err := coords.ParseLatitude(q.Get("lat"))
	if err != nil {
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}
	lon, err := coords.ParseLongitude(q.Get("lon"))
	if err != nil {
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}

	birth, err := models.NewBirthMoment(civil, loc, lat, lon)
	if err != nil {
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}
	s.serveChart(w, r, birth, system)
}

func (s *Server) serveChart(w http.ResponseWriter, r *http.Request, birth models.BirthMoment, system houses.System) {
	ch, err := s.calc.WithLogger(s.logger.With(zap.String("request_id", GetRequestID(r.Context())))).
		Calculate(r.Context(), birth, system)
	if err != nil {
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, ch.Summary())
}

func (s *Server) system(name string) (houses.System, error) {
	if name == "" {
		return s.defaultSystem, nil
	}
	return houses.ParseSystem(name)
}

// PositionResponse is the body of GET /v1/ephemeris
type PositionResponse struct {
	JulianDay  float64 `json:"julian_day"`
	Body       string  `json:"body"`
	Longitude  float64 `json:"longitude"`
	Speed      float64 `json:"speed"`
	Sign       string  `json:"sign"`
	Degrees    float64 `json:"degrees"`
	Position   string  `json:"position"`
	Retrograde bool    `json:"retrograde"`
}

// handleEphemeris serves GET /v1/ephemeris?jd=&body=
func (s *Server) handleEphemeris(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	jd, err := strconv.ParseFloat(q.Get("jd"), 64)
	if err == nil && (math.IsNaN(jd) || math.IsInf(jd, 0)) {
		err = errors.New("not finite")
	}
	if err != nil {
		err = fmt.Errorf("jd %q is not a number: %w", q.Get("jd"), models.ErrInvalidDate)
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}
	body, err := ephemeris.ParseBody(q.Get("body"))
	if err != nil {
		s.writeError(w, r, CodeInvalidParameter, err)
		return
	}

	p, err := s.provider.Position(r.Context(), julian.Day(jd), body)
	if err != nil {
		if !errors.Is(err, models.ErrEphemerisUnavailable) {
			err = fmt.Errorf("%v: %w", err, models.ErrEphemerisUnavailable)
		}
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || math.IsNaN(p.Speed) || math.IsInf(p.Speed, 0) {
		err = fmt.Errorf("%s at jd %v has no finite position: %w", body, jd, models.ErrEphemerisUnavailable)
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, PositionResponse{
		JulianDay:  jd,
		Body:       body.Key(),
		Longitude:  p.Longitude,
		Speed:      p.Speed,
		Sign:       p.Sign().String(),
		Degrees:    p.DegreesInSign(),
		Position:   zodiac.FormatPosition(p.Longitude),
		Retrograde: p.Retrograde(),
	})
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.profiles.ListProfiles(r.Context())
	if err != nil {
		s.writeError(w, r, models.CodeInternal, err)
		return
	}
	if list == nil {
		list = []models.Profile{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

// handleProfileChart serves GET /v1/profiles/{name}/chart?system=
func (s *Server) handleProfileChart(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	p, err := s.profiles.GetProfile(r.Context(), name)
	if errors.Is(err, profiles.ErrNotFound) {
		s.writeError(w, r, codeNotFound, err)
		return
	}
	if err != nil {
		s.writeError(w, r, models.CodeInternal, err)
		return
	}

	requested := r.URL.Query().Get("system")
	if requested == "" {
		requested = p.HouseSystem
	}
	system, err := s.system(requested)
	if err != nil {
		s.writeError(w, r, CodeInvalidParameter, err)
		return
	}

	birth, err := p.BirthMoment()
	if err != nil {
		s.writeError(w, r, models.CodeOf(err), err)
		return
	}
	s.serveChart(w, r, birth, system)
}
