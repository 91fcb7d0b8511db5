package coords

import (
	"errors"
	"math"
	"testing"

	"github.com/ngmaloney/natal-terminal/internal/models"
)

func TestParseLatitude(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"40.7128", 40.7128},
		{"-33.87", -33.87},
		{"+12", 12},
		{"40 42", 40.7},
		{"40°42'", 40.7},
		{"40°42'46\"", 40 + 42.0/60 + 46.0/3600},
		{"40°42′46″N", 40 + 42.0/60 + 46.0/3600},
		{"40 42 46 N", 40 + 42.0/60 + 46.0/3600},
		{"33°52'S", -(33 + 52.0/60)},
		{"S 33.5", -33.5},
		{"s33.5", -33.5},
		{"51:28:38", 51 + 28.0/60 + 38.0/3600},
		{"90", 90},
		{"0", 0},
	}

	for _, tt := range tests {
		got, err := ParseLatitude(tt.in)
		if err != nil {
			t.Errorf("ParseLatitude(%q) error = %v", tt.in, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseLatitude(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLatitude_Invalid(t *testing.T) {
	for _, in := range []string{"", "N", "91", "-90.5", "40 60", "40 42 60", "40.5 30", "40 E", "-40 S", "north", "40 42 46 12", "NaN"} {
		_, err := ParseLatitude(in)
		if !errors.Is(err, models.ErrInvalidCoordinate) {
			t.Errorf("ParseLatitude(%q) error = %v, want ErrInvalidCoordinate", in, err)
		}
	}
}

func TestParseLongitude(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"-74.006", -74.006},
		{"74°0'21.6\"W", -74.006},
		{"151.21 E", 151.21},
		{"W 0.1278", -0.1278},
		{"285.994", -74.006},
		{"180", 180},
	}

	for _, tt := range tests {
		got, err := ParseLongitude(tt.in)
		if err != nil {
			t.Errorf("ParseLongitude(%q) error = %v", tt.in, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseLongitude(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLongitude_Invalid(t *testing.T) {
	for _, in := range []string{"361", "-181", "74 N", "abc"} {
		_, err := ParseLongitude(in)
		if !errors.Is(err, models.ErrInvalidCoordinate) {
			t.Errorf("ParseLongitude(%q) error = %v, want ErrInvalidCoordinate", in, err)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := FormatLatitude(40.7128); got != "40°42'46\"N" {
		t.Errorf("FormatLatitude() = %q", got)
	}
	if got := FormatLongitude(-74.006); got != "74°00'22\"W" {
		t.Errorf("FormatLongitude() = %q", got)
	}
	if got := FormatLatitude(-33.87); got != "33°52'12\"S" {
		t.Errorf("FormatLatitude() = %q", got)
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 12.5, -45.25, 66.5625} {
		got, err := ParseLatitude(FormatLatitude(v))
		if err != nil {
			t.Fatalf("ParseLatitude(FormatLatitude(%v)) error = %v", v, err)
		}
		if math.Abs(got-v) > 1.0/3600 {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
}
