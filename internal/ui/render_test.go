package ui

import (
	"context"
	"strings"
	"testing"

	"github.com/ngmaloney/natal-terminal/internal/chart"
	"github.com/ngmaloney/natal-terminal/internal/ephemeris"
	"github.com/ngmaloney/natal-terminal/internal/houses"
)

func calculate(t *testing.T, latitude float64, system houses.System) chart.Chart {
	t.Helper()
	p := greenwich
	p.Latitude = latitude
	birth, err := p.BirthMoment()
	if err != nil {
		t.Fatalf("BirthMoment() error = %v", err)
	}
	c, err := chart.NewCalculator(ephemeris.NewAnalytic(), chart.DefaultOptions()).Calculate(context.Background(), birth, system)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	return c
}

func TestRenderChartText(t *testing.T) {
	out := RenderChartText(calculate(t, 51.4779, houses.Placidus))

	for _, want := range []string{
		"2000-01-01 12:00:00 UTC",
		"Sun Capricorn",
		"Houses: placidus",
		"Body", "Position", "North Node",
		"Ascendant", "Imum Coeli",
		"Cusp",
		"Aspect", "Strength",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderChartText() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "undefined at this latitude") {
		t.Error("no fallback note expected at Greenwich")
	}
}

func TestRenderChartText_PolarFallback(t *testing.T) {
	out := RenderChartText(calculate(t, 70, houses.Placidus))

	if !strings.Contains(out, "Houses: equal (placidus is undefined at this latitude)") {
		t.Errorf("RenderChartText() should note the fallback:\n%s", out)
	}
}

func TestRenderPanes(t *testing.T) {
	c := calculate(t, 51.4779, houses.WholeSign)

	bodies := renderBodiesPane(c)
	if got := strings.Count(bodies, "\n") + 1; got != len(ephemeris.Bodies()) {
		t.Errorf("bodies pane has %d lines, want %d", got, len(ephemeris.Bodies()))
	}
	if !strings.Contains(renderHousesPane(c), "Midheaven") {
		t.Error("houses pane should list the angles")
	}
	if aspectsPane := renderAspectsPane(c); aspectsPane == "" {
		t.Error("aspects pane should not be empty")
	}
}

func TestActivePane_String(t *testing.T) {
	if PaneAspects.String() != "Aspects" {
		t.Errorf("PaneAspects.String() = %q", PaneAspects.String())
	}
	if got := ActivePane(7).String(); got != "Pane(7)" {
		t.Errorf("ActivePane(7).String() = %q", got)
	}
}
