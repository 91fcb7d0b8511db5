package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/natal-terminal/internal/aspects"
	"github.com/ngmaloney/natal-terminal/internal/zodiac"
)

var (
	// Color palette
	colorPrimary   = lipgloss.Color("#B39DDB") // Lavender
	colorSecondary = lipgloss.Color("#81D4FA") // Pale blue
	colorDanger    = lipgloss.Color("#FF6B6B") // Red for errors
	colorWarning   = lipgloss.Color("#FFD93D") // Yellow for warnings
	colorSuccess   = lipgloss.Color("#6BCF7F") // Green
	colorMuted     = lipgloss.Color("#6C757D") // Gray
	colorBorder    = lipgloss.Color("#7E57C2") // Border violet

	// Element colors
	colorFire  = lipgloss.Color("#FF8C42")
	colorEarth = lipgloss.Color("#A1887F")
	colorAir   = lipgloss.Color("#FFF176")
	colorWater = lipgloss.Color("#4FC3F7")

	// Title styles (no padding - paneStyle already has padding)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	activeTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(colorPrimary)

	// Pane styles
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2).
			MarginRight(1)

	activePaneStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2).
			MarginRight(1)

	// Content styles
	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// Aspect strength styles
	strongStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	mediumStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	weakStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	retrogradeStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Bold(true)

	// Help text style
	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(1, 0)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	focusedLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	boxHeaderStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Padding(0, 0, 1, 0) // Padding bottom 1

	sectionBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2).
			MarginBottom(1)
)

// signStyle colors a sign by its element
func signStyle(s zodiac.Sign) lipgloss.Style {
	style := lipgloss.NewStyle()
	switch s.Element() {
	case zodiac.Fire:
		return style.Foreground(colorFire)
	case zodiac.Earth:
		return style.Foreground(colorEarth)
	case zodiac.Air:
		return style.Foreground(colorAir)
	case zodiac.Water:
		return style.Foreground(colorWater)
	}
	return style
}

func strengthStyle(s aspects.Strength) lipgloss.Style {
	switch s {
	case aspects.Strong:
		return strongStyle
	case aspects.Medium:
		return mediumStyle
	default:
		return weakStyle
	}
}
