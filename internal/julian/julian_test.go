package julian

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ngmaloney/natal-terminal/internal/models"
)

func TestFromCivil_KnownValues(t *testing.T) {
	tests := []struct {
		name  string
		civil models.CivilTime
		want  Day
	}{
		{"J2000.0", models.CivilTime{Year: 2000, Month: 1, Day: 1, Hour: 12}, 2451545.0},
		{"Sputnik launch", models.CivilTime{Year: 1957, Month: 10, Day: 4, Hour: 19, Minute: 26, Second: 24}, 2436116.31},
		{"Unix epoch", models.CivilTime{Year: 1970, Month: 1, Day: 1}, 2440587.5},
		{"Gregorian reform day", models.CivilTime{Year: 1582, Month: 10, Day: 15}, 2299160.5},
		{"year 1600 leap day", models.CivilTime{Year: 1600, Month: 2, Day: 29, Hour: 12}, 2305507.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromCivil(tt.civil)
			if err != nil {
				t.Fatalf("FromCivil() error = %v", err)
			}
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("FromCivil() = %.6f, want %.6f", got, tt.want)
			}
		})
	}
}

func TestFromCivil_InvalidDate(t *testing.T) {
	_, err := FromCivil(models.CivilTime{Year: 2023, Month: 2, Day: 30})
	if !errors.Is(err, models.ErrInvalidDate) {
		t.Errorf("FromCivil(Feb 30) error = %v, want ErrInvalidDate", err)
	}
}

func TestFromCivil_NoonDifferenceIsExactlyOneDay(t *testing.T) {
	start := time.Date(1899, 12, 25, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i++ {
		d := start.AddDate(0, 0, i*53)
		prev := d.AddDate(0, 0, -1)

		jd, err := FromCivil(models.CivilFromTime(d))
		if err != nil {
			t.Fatalf("FromCivil(%v) error = %v", d, err)
		}
		jdPrev, err := FromCivil(models.CivilFromTime(prev))
		if err != nil {
			t.Fatalf("FromCivil(%v) error = %v", prev, err)
		}
		if jd-jdPrev != 1.0 {
			t.Fatalf("noon difference at %v = %v, want exactly 1.0", d, jd-jdPrev)
		}
	}
}

func TestFromTime_MonotonicByMinute(t *testing.T) {
	start := time.Date(2023, 12, 31, 22, 0, 0, 0, time.UTC)
	prev := FromTime(start)
	for i := 1; i <= 240; i++ {
		jd := FromTime(start.Add(time.Duration(i) * time.Minute))
		if jd <= prev {
			t.Fatalf("JD not increasing at minute %d: %v <= %v", i, jd, prev)
		}
		if diff := float64(jd - prev); math.Abs(diff-1.0/1440) > 1e-9 {
			t.Fatalf("minute step at %d = %v, want %v", i, diff, 1.0/1440)
		}
		prev = jd
	}
}

func TestFromTime_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	local := time.Date(2000, 1, 1, 22, 0, 0, 0, loc)
	if got := FromTime(local); got != J2000 {
		t.Errorf("FromTime(22:00 UTC+10) = %v, want %v", got, J2000)
	}
}

func TestDay_TimeRoundTrip(t *testing.T) {
	times := []time.Time{
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(1957, 10, 4, 19, 26, 24, 0, time.UTC),
		time.Date(1600, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2099, 12, 31, 23, 59, 0, 0, time.UTC),
	}
	for _, want := range times {
		got := FromTime(want).Time()
		if d := got.Sub(want); d > time.Millisecond || d < -time.Millisecond {
			t.Errorf("round trip of %v = %v (off by %v)", want, got, d)
		}
	}
}

func TestDay_Centuries(t *testing.T) {
	d := J2000 + 36525
	if got := d.Centuries(); got != 1.0 {
		t.Errorf("Centuries() = %v, want 1.0", got)
	}
}
