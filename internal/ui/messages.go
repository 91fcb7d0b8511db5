package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/natal-terminal/internal/chart"
	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/profiles"
)

// cmdTimeout bounds every background command, geocoding included
const cmdTimeout = 30 * time.Second

// Message types for async operations

// errMsg is a message type for errors
type errMsg struct {
	err error
}

// provisioningStartedMsg carries the channels of a running provisioning job
type provisioningStartedMsg struct {
	progressChan <-chan string
	resultChan   <-chan error
}

// provisionStatusMsg is a progress line from the provisioning job
type provisionStatusMsg string

// provisionResultMsg is sent once provisioning finishes
type provisionResultMsg struct {
	err error
}

// profilesFetchedMsg is sent when saved profiles have been loaded
type profilesFetchedMsg struct {
	profiles []models.Profile
	err      error
}

// profileResolvedMsg is sent when form input has been resolved, and saved
// when it carried a name
type profileResolvedMsg struct {
	profile *models.Profile
	saved   bool
	err     error
}

// profileDeletedMsg is sent when a profile has been deleted
type profileDeletedMsg struct {
	name string
	err  error
}

// chartCalculatedMsg is sent when a chart has been calculated
type chartCalculatedMsg struct {
	profile models.Profile
	chart   chart.Chart
	err     error
}

// initiateProvisioning starts provision in the background and hands its
// channels to the model
func initiateProvisioning(provision ProvisionFunc) tea.Cmd {
	return func() tea.Msg {
		progressChan := make(chan string, 16)
		resultChan := make(chan error, 1)

		go func() {
			err := provision(context.Background(), progressChan)
			close(progressChan)
			resultChan <- err
		}()

		return provisioningStartedMsg{progressChan: progressChan, resultChan: resultChan}
	}
}

// waitForProvisionStatus reads the next progress line. A closed channel
// yields no message.
func waitForProvisionStatus(progressChan <-chan string) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-progressChan
		if !ok {
			return nil
		}
		return provisionStatusMsg(status)
	}
}

func waitForProvisionResult(resultChan <-chan error) tea.Cmd {
	return func() tea.Msg {
		return provisionResultMsg{err: <-resultChan}
	}
}

// fetchProfiles loads saved profiles in the background
func fetchProfiles(store ProfileStore) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()

		list, err := store.ListProfiles(ctx)
		return profilesFetchedMsg{profiles: list, err: err}
	}
}

// submitProfile resolves form input, saving it as a profile when named
func submitProfile(store ProfileStore, in profiles.Input) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()

		if strings.TrimSpace(in.Name) == "" {
			p, err := store.Resolve(ctx, in)
			return profileResolvedMsg{profile: p, err: err}
		}
		p, err := store.CreateProfile(ctx, in)
		return profileResolvedMsg{profile: p, saved: err == nil, err: err}
	}
}

func deleteProfile(store ProfileStore, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()

		return profileDeletedMsg{name: name, err: store.DeleteProfile(ctx, name)}
	}
}

// calculateChart computes the chart for a profile in the background
func calculateChart(calc ChartCalculator, p models.Profile, system houses.System) tea.Cmd {
	return func() tea.Msg {
		birth, err := p.BirthMoment()
		if err != nil {
			return chartCalculatedMsg{profile: p, err: fmt.Errorf("profile %q: %w", p.Name, err)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), cmdTimeout)
		defer cancel()

		c, err := calc.Calculate(ctx, birth, system)
		return chartCalculatedMsg{profile: p, chart: c, err: err}
	}
}
