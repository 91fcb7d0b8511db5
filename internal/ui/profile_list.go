package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/ngmaloney/natal-terminal/internal/coords"
	"github.com/ngmaloney/natal-terminal/internal/models"
)

// profileItem wraps a Profile for use in a list
type profileItem struct {
	profile models.Profile
}

// FilterValue implements list.Item
func (p profileItem) FilterValue() string {
	return p.profile.Name
}

// Title implements list.DefaultItem
func (p profileItem) Title() string {
	return p.profile.Name
}

// Description implements list.DefaultItem
func (p profileItem) Description() string {
	desc := fmt.Sprintf("%s %s %s", p.profile.BirthDate, p.profile.BirthTime, p.profile.TimeZone)
	if p.profile.Place != "" {
		desc += " • " + p.profile.Place
	} else {
		desc += fmt.Sprintf(" • %s %s",
			coords.FormatLatitude(p.profile.Latitude),
			coords.FormatLongitude(p.profile.Longitude))
	}
	return desc
}

// createProfileList creates a list.Model from profiles
func createProfileList(profiles []models.Profile, width, height int) list.Model {
	items := make([]list.Item, len(profiles))
	for i, p := range profiles {
		items[i] = profileItem{profile: p}
	}

	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = "Saved Profiles"
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)

	return l
}
