package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/profiles"
)

// Form fields, in tab order
const (
	fieldName = iota
	fieldDate
	fieldTime
	fieldZone
	fieldPlace
	fieldLatitude
	fieldLongitude
	fieldSystem
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Name", "Date", "Time", "Time zone", "Birthplace", "Latitude", "Longitude", "Houses",
}

var fieldPlaceholders = [fieldCount]string{
	"optional, saves a profile",
	"YYYY-MM-DD",
	"HH:MM or HH:MM:SS",
	"America/New_York or +05:30, blank to look up",
	"Boston, MA or 02139",
	"40.7128 or 40°42'46\"N, blank to geocode",
	"-74.006 or 74°00'22\"W",
	"placidus, koch, porphyry, equal, whole-sign",
}

// birthForm collects birth data
type birthForm struct {
	inputs []textinput.Model
	focus  int
}

func newBirthForm(defaultSystem houses.System) birthForm {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Placeholder = fieldPlaceholders[i]
		ti.CharLimit = 100
		ti.Width = 50
		inputs[i] = ti
	}
	inputs[fieldSystem].SetValue(defaultSystem.String())
	inputs[fieldName].Focus()

	return birthForm{inputs: inputs}
}

// setFocus moves focus to field i, wrapping around
func (f *birthForm) setFocus(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (i%fieldCount + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *birthForm) next() tea.Cmd { return f.setFocus(f.focus + 1) }
func (f *birthForm) prev() tea.Cmd { return f.setFocus(f.focus - 1) }

// onLastField reports whether Enter should submit
func (f birthForm) onLastField() bool {
	return f.focus == fieldCount-1
}

// Update passes msg to the focused input
func (f birthForm) Update(msg tea.Msg) (birthForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// Input returns the typed values
func (f birthForm) Input() profiles.Input {
	value := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }
	return profiles.Input{
		Name:        value(fieldName),
		Date:        value(fieldDate),
		Time:        value(fieldTime),
		TimeZone:    value(fieldZone),
		Place:       value(fieldPlace),
		Latitude:    value(fieldLatitude),
		Longitude:   value(fieldLongitude),
		HouseSystem: value(fieldSystem),
	}
}

func (f birthForm) View() string {
	rows := make([]string, 0, fieldCount)
	for i, in := range f.inputs {
		label := labelStyle
		if i == f.focus {
			label = focusedLabelStyle
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			label.Width(12).Render(fieldLabels[i]),
			in.View(),
		))
	}
	return strings.Join(rows, "\n")
}
