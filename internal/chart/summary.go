package chart

import (
	"time"

	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// Summary is the serializable view of a chart
type Summary struct {
	JulianDay       float64         `json:"julian_day"`
	Birth           BirthSummary    `json:"birth"`
	HouseSystem     string          `json:"house_system"`
	RequestedSystem string          `json:"requested_house_system"`
	Fallback        bool            `json:"fallback"`
	SunSign         string          `json:"sun_sign"`
	MoonSign        string          `json:"moon_sign"`
	RisingSign      string          `json:"rising_sign"`
	Bodies          []BodySummary   `json:"bodies"`
	Houses          []HouseSummary  `json:"houses"`
	Angles          AnglesSummary   `json:"angles"`
	Aspects         []AspectSummary `json:"aspects"`
}

// BirthSummary echoes the resolved input
type BirthSummary struct {
	Local     string    `json:"local"`
	TimeZone  string    `json:"time_zone"`
	UTC       time.Time `json:"utc"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

type BodySummary struct {
	Name       string  `json:"name"`
	Sign       string  `json:"sign"`
	Degrees    float64 `json:"degrees"`
	Longitude  float64 `json:"longitude"`
	Position   string  `json:"position"`
	House      int     `json:"house"`
	Retrograde bool    `json:"retrograde"`
	Speed      float64 `json:"speed"`
}

type HouseSummary struct {
	House     int     `json:"house"`
	Sign      string  `json:"sign"`
	Degrees   float64 `json:"degrees"`
	Longitude float64 `json:"longitude"`
}

// PointSummary is a longitude resolved into its sign
type PointSummary struct {
	Sign      string  `json:"sign"`
	Degrees   float64 `json:"degrees"`
	Longitude float64 `json:"longitude"`
	Position  string  `json:"position"`
}

type AnglesSummary struct {
	Ascendant  PointSummary `json:"ascendant"`
	Midheaven  PointSummary `json:"midheaven"`
	Descendant PointSummary `json:"descendant"`
	ImumCoeli  PointSummary `json:"imum_coeli"`
}

type AspectSummary struct {
	A        string  `json:"a"`
	B        string  `json:"b"`
	Type     string  `json:"type"`
	Angle    float64 `json:"angle"`
	Orb      float64 `json:"orb"`
	Strength string  `json:"strength"`
}

func point(lon float64) PointSummary {
	sign, deg := zodiac.Resolve(lon)
	return PointSummary{Sign: sign.String(), Degrees: deg, Longitude: lon, Position: zodiac.FormatPosition(lon)}
}

// Summary produces the serializable view of c
func (c Chart) Summary() Summary {
	s := Summary{
		JulianDay: float64(c.jd),
		Birth: BirthSummary{
			Local:     c.birth.Local().String(),
			UTC:       c.birth.UTC(),
			Latitude:  c.birth.Latitude(),
			Longitude: c.birth.Longitude(),
		},
		HouseSystem:     c.system.String(),
		RequestedSystem: c.requested.String(),
		Fallback:        c.fallback,
		SunSign:         c.sunSign.String(),
		MoonSign:        c.moonSign.String(),
		RisingSign:      c.risingSign.String(),
		Bodies:          make([]BodySummary, 0, len(c.placements)),
		Houses:          make([]HouseSummary, 0, 12),
		Aspects:         make([]AspectSummary, 0, len(c.aspects)),
		Angles: AnglesSummary{
			Ascendant:  point(c.angles.Ascendant),
			Midheaven:  point(c.angles.Midheaven),
			Descendant: point(c.angles.Descendant),
			ImumCoeli:  point(c.angles.ImumCoeli),
		},
	}
	if loc := c.birth.Location(); loc != nil {
		s.Birth.TimeZone = loc.String()
	}

	for _, p := range c.placements {
		sign, deg := zodiac.Resolve(p.Longitude)
		s.Bodies = append(s.Bodies, BodySummary{
			Name:       p.Body.String(),
			Sign:       sign.String(),
			Degrees:    deg,
			Longitude:  p.Longitude,
			Position:   zodiac.FormatPosition(p.Longitude),
			House:      p.House,
			Retrograde: p.Retrograde(),
			Speed:      p.Speed,
		})
	}

	for _, cusp := range c.cusps {
		sign, deg := zodiac.Resolve(cusp.Longitude)
		s.Houses = append(s.Houses, HouseSummary{
			House:     cusp.House,
			Sign:      sign.String(),
			Degrees:   deg,
			Longitude: cusp.Longitude,
		})
	}

	for _, a := range c.aspects {
		s.Aspects = append(s.Aspects, AspectSummary{
			A:        a.A.String(),
			B:        a.B.String(),
			Type:     a.Type.String(),
			Angle:    a.Angle(),
			Orb:      a.Orb,
			Strength: string(a.Strength),
		})
	}

	return s
}
