package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ngmaloney/natal-terminal/internal/chart"
	"github.com/ngmaloney/natal-terminal/internal/coords"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

// ActivePane represents which pane is currently focused
type ActivePane int

const (
	PaneBodies ActivePane = iota
	PaneHouses
	PaneAspects
	paneCount
)

var paneTitles = [paneCount]string{"Planets", "Houses", "Aspects"}

func (p ActivePane) String() string {
	if p < 0 || p >= paneCount {
		return fmt.Sprintf("Pane(%d)", int(p))
	}
	return paneTitles[p]
}

// headerLines describes the birth moment and the big three
func headerLines(c chart.Chart) []string {
	b := c.Birth()
	zone := "UTC"
	if loc := b.Location(); loc != nil {
		zone = loc.String()
	}

	lines := []string{
		fmt.Sprintf("%s %s (%s UTC) at %s %s",
			b.Local(), zone, b.UTC().Format("2006-01-02 15:04"),
			coords.FormatLatitude(b.Latitude()), coords.FormatLongitude(b.Longitude())),
		fmt.Sprintf("Sun %s · Moon %s · Rising %s", c.SunSign(), c.MoonSign(), c.RisingSign()),
	}

	houses := fmt.Sprintf("Houses: %s", c.System())
	if c.Fallback() {
		houses += fmt.Sprintf(" (%s is undefined at this latitude)", c.Requested())
	}
	return append(lines, houses)
}

func motion(p chart.Placement) string {
	if p.Retrograde() {
		return "R"
	}
	return ""
}

func bodyRows(c chart.Chart) [][]string {
	placements := c.Placements()
	rows := make([][]string, 0, len(placements))
	for _, p := range placements {
		rows = append(rows, []string{
			p.Body.String(),
			zodiac.FormatPosition(p.Longitude),
			strconv.Itoa(p.House),
			motion(p),
		})
	}
	return rows
}

func angleRows(c chart.Chart) [][]string {
	a := c.Angles()
	return [][]string{
		{"Ascendant", zodiac.FormatPosition(a.Ascendant)},
		{"Midheaven", zodiac.FormatPosition(a.Midheaven)},
		{"Descendant", zodiac.FormatPosition(a.Descendant)},
		{"Imum Coeli", zodiac.FormatPosition(a.ImumCoeli)},
	}
}

func houseRows(c chart.Chart) [][]string {
	rows := make([][]string, 0, 12)
	for _, cusp := range c.Cusps() {
		rows = append(rows, []string{strconv.Itoa(cusp.House), zodiac.FormatPosition(cusp.Longitude)})
	}
	return rows
}

func aspectRows(c chart.Chart) [][]string {
	list := c.Aspects()
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		rows = append(rows, []string{
			fmt.Sprintf("%s %s %s", a.A, a.Type, a.B),
			zodiac.FormatDMS(a.Orb),
			string(a.Strength),
		})
	}
	return rows
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return labelStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

// RenderChartText renders a chart as plain tables for terminal output
func RenderChartText(c chart.Chart) string {
	var b strings.Builder
	for _, line := range headerLines(c) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	b.WriteString(newTable("Body", "Position", "House", "Motion").Rows(bodyRows(c)...).Render())
	b.WriteString("\n\n")
	b.WriteString(newTable("Angle", "Position").Rows(angleRows(c)...).Render())
	b.WriteString("\n\n")
	b.WriteString(newTable("House", "Cusp").Rows(houseRows(c)...).Render())
	b.WriteString("\n\n")

	if rows := aspectRows(c); len(rows) > 0 {
		b.WriteString(newTable("Aspect", "Orb", "Strength").Rows(rows...).Render())
	} else {
		b.WriteString("No aspects within orb")
	}
	b.WriteByte('\n')
	return b.String()
}

// renderBodiesPane lists each body with its sign colored by element
func renderBodiesPane(c chart.Chart) string {
	var lines []string
	for _, p := range c.Placements() {
		line := fmt.Sprintf("%s %s %s",
			labelStyle.Width(11).Render(p.Body.String()),
			signStyle(p.Sign()).Render(zodiac.FormatPosition(p.Longitude)),
			mutedStyle.Render(fmt.Sprintf("h%d", p.House)),
		)
		if p.Retrograde() {
			line += " " + retrogradeStyle.Render("R")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func renderHousesPane(c chart.Chart) string {
	var lines []string
	for _, row := range angleRows(c) {
		lines = append(lines, labelStyle.Width(11).Render(row[0])+" "+valueStyle.Render(row[1]))
	}
	lines = append(lines, "")
	for _, cusp := range c.Cusps() {
		sign, _ := zodiac.Resolve(cusp.Longitude)
		lines = append(lines, fmt.Sprintf("%s %s",
			labelStyle.Width(4).Render(strconv.Itoa(cusp.House)),
			signStyle(sign).Render(zodiac.FormatPosition(cusp.Longitude))))
	}
	return strings.Join(lines, "\n")
}

func renderAspectsPane(c chart.Chart) string {
	list := c.Aspects()
	if len(list) == 0 {
		return mutedStyle.Render("No aspects within orb")
	}
	lines := make([]string, 0, len(list))
	for _, a := range list {
		lines = append(lines, fmt.Sprintf("%s %s",
			strengthStyle(a.Strength).Render(fmt.Sprintf("%s %s %s", a.A, a.Type, a.B)),
			mutedStyle.Render(zodiac.FormatDMS(a.Orb))))
	}
	return strings.Join(lines, "\n")
}

// renderPane boxes content, highlighting the focused pane
func renderPane(p ActivePane, content string, active bool) string {
	title := titleStyle.Render(p.String())
	style := paneStyle
	if active {
		title = activeTitleStyle.Render(" " + p.String() + " ")
		style = activePaneStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, boxHeaderStyle.Render(title), content))
}
