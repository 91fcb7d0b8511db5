// Package coords parses and formats geographic coordinates
package coords

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/ngmaloney/natal-terminal/internal/models"
)

// ParseLatitude accepts decimal degrees or degrees/minutes/seconds with an
// optional N or S, e.g. "40.7128", "-33.87", "40 42 46 N", "33°52'S"
func ParseLatitude(s string) (float64, error) {
	v, err := parse(s, 'N', 'S')
	if err != nil {
		return 0, fmt.Errorf("latitude %q: %w", s, err)
	}
	if err := models.ValidateLatitude(v); err != nil {
		return 0, err
	}
	return v, nil
}

// ParseLongitude accepts the same forms as ParseLatitude with E or W.
// East is positive; values in (180, 360] are folded to negative.
func ParseLongitude(s string) (float64, error) {
	v, err := parse(s, 'E', 'W')
	if err != nil {
		return 0, fmt.Errorf("longitude %q: %w", s, err)
	}
	return models.NormalizeLongitude(v)
}

func parse(s string, positive, negative rune) (float64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty: %w", models.ErrInvalidCoordinate)
	}

	sign := 1.0
	hasDirection := false
	runes := []rune(s)
	for _, idx := range []int{0, len(runes) - 1} {
		switch r := runes[idx]; {
		case r == positive:
			hasDirection = true
			runes[idx] = ' '
		case r == negative:
			hasDirection = true
			sign = -1
			runes[idx] = ' '
		case unicode.IsLetter(r):
			return 0, fmt.Errorf("unexpected direction %q: %w", r, models.ErrInvalidCoordinate)
		}
		if hasDirection {
			break
		}
	}
	body := strings.TrimSpace(string(runes))

	if strings.HasPrefix(body, "-") {
		if hasDirection {
			return 0, fmt.Errorf("both a minus sign and a direction: %w", models.ErrInvalidCoordinate)
		}
		sign = -1
		body = strings.TrimSpace(body[1:])
	} else if strings.HasPrefix(body, "+") {
		body = strings.TrimSpace(body[1:])
	}

	fields := strings.FieldsFunc(body, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("°º'′\"″:", r)
	})
	if len(fields) == 0 || len(fields) > 3 {
		return 0, fmt.Errorf("expected 1 to 3 numbers: %w", models.ErrInvalidCoordinate)
	}

	var parts [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, fmt.Errorf("bad number %q: %w", f, models.ErrInvalidCoordinate)
		}
		// only the last field may carry a fraction
		if i < len(fields)-1 && v != math.Trunc(v) {
			return 0, fmt.Errorf("fractional %q before the last field: %w", f, models.ErrInvalidCoordinate)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("minutes or seconds %q out of range: %w", f, models.ErrInvalidCoordinate)
		}
		parts[i] = v
	}

	return sign * (parts[0] + parts[1]/60 + parts[2]/3600), nil
}

// FormatLatitude renders a latitude as 40°42'46"N
func FormatLatitude(lat float64) string {
	return format(lat, "N", "S")
}

// FormatLongitude renders a longitude as 74°00'22"W
func FormatLongitude(lon float64) string {
	return format(lon, "E", "W")
}

func format(v float64, positive, negative string) string {
	dir := positive
	if v < 0 {
		dir = negative
		v = -v
	}
	total := int(math.Round(v * 3600))
	return fmt.Sprintf("%d°%02d'%02d\"%s", total/3600, (total%3600)/60, total%60, dir)
}
