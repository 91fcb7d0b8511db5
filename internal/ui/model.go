package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/natal-terminal/internal/chart"
	"github.com/ngmaloney/natal-terminal/internal/houses"
	"github.com/ngmaloney/natal-terminal/internal/models"
	"github.com/ngmaloney/natal-terminal/internal/profiles"
)

// AppState represents the current state of the application
type AppState int

const (
	StateForm         AppState = iota // Enter birth data
	StateProfiles                     // Pick a saved profile
	StateLoading                      // Resolving input or calculating a chart
	StateDisplay                      // Display the chart
	StateProvisioning                 // Initial data provisioning (downloading/building DB)
	StateError                        // Error state
)

// ChartCalculator computes charts
type ChartCalculator interface {
	Calculate(ctx context.Context, birth models.BirthMoment, system houses.System) (chart.Chart, error)
}

// ProfileStore resolves and persists birth data
type ProfileStore interface {
	Resolve(ctx context.Context, in profiles.Input) (*models.Profile, error)
	CreateProfile(ctx context.Context, in profiles.Input) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	DeleteProfile(ctx context.Context, name string) error
}

// ProvisionFunc builds local data, reporting progress lines on progress
type ProvisionFunc func(ctx context.Context, progress chan<- string) error

// Options wires the model to the rest of the application
type Options struct {
	Calculator    ChartCalculator
	Profiles      ProfileStore
	DefaultSystem houses.System
	// Provision runs before anything else when set
	Provision ProvisionFunc
}

// Model represents the application's state
type Model struct {
	state      AppState
	returnTo   AppState // state to go back to after an error
	activePane ActivePane
	width      int
	height     int
	err        error
	status     string

	calculator    ChartCalculator
	store         ProfileStore
	defaultSystem houses.System
	provision     ProvisionFunc

	// Input
	form        birthForm
	profileList list.Model
	profiles    []models.Profile

	// Chart
	profile models.Profile
	system  houses.System
	chart   *chart.Chart

	// Provisioning
	spinner           spinner.Model
	provisionStatus   string
	provisionChannels *provisioningStartedMsg
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		state:         StateForm,
		returnTo:      StateForm,
		activePane:    PaneBodies,
		calculator:    opts.Calculator,
		store:         opts.Profiles,
		defaultSystem: opts.DefaultSystem,
		provision:     opts.Provision,
		form:          newBirthForm(opts.DefaultSystem),
		spinner:       s,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	if m.provision != nil {
		return tea.Batch(m.spinner.Tick, initiateProvisioning(m.provision))
	}
	return m.start()
}

// start leaves provisioning for the profile list, or the form when
// profiles are not stored
func (m Model) start() tea.Cmd {
	if m.store != nil {
		return fetchProfiles(m.store)
	}
	return textinput.Blink
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Handle window size
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		if m.state == StateProfiles {
			m.profileList.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil
	}

	// Handle custom messages
	switch msg := msg.(type) {
	case errMsg:
		return m.fail(msg.err), nil

	// Provisioning messages
	case provisioningStartedMsg:
		m.state = StateProvisioning
		m.provisionStatus = "Starting data provisioning..."
		m.provisionChannels = &msg
		return m, tea.Batch(
			waitForProvisionStatus(msg.progressChan),
			waitForProvisionResult(msg.resultChan),
		)

	case provisionStatusMsg:
		m.provisionStatus = string(msg)
		if m.provisionChannels != nil {
			return m, waitForProvisionStatus(m.provisionChannels.progressChan)
		}
		return m, nil

	case provisionResultMsg:
		m.provisionChannels = nil
		if msg.err != nil {
			m.state = StateError
			m.err = fmt.Errorf("provisioning failed: %w", msg.err)
			return m, nil
		}
		m.state = StateForm
		return m, m.start()

	case profilesFetchedMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("loading profiles: %w", msg.err)), nil
		}
		m.profiles = msg.profiles
		if len(msg.profiles) == 0 {
			return m.showForm()
		}
		m.profileList = createProfileList(msg.profiles, m.width-4, m.height-6)
		m.state = StateProfiles
		m.returnTo = StateProfiles
		return m, nil

	case profileResolvedMsg:
		if msg.err != nil {
			m.returnTo = StateForm
			return m.fail(msg.err), nil
		}
		if msg.saved {
			m.status = fmt.Sprintf("Saved profile %q", msg.profile.Name)
		}
		return m.calculate(*msg.profile, m.systemFor(*msg.profile))

	case profileDeletedMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("deleting %q: %w", msg.name, msg.err)), nil
		}
		m.status = fmt.Sprintf("Deleted profile %q", msg.name)
		return m, fetchProfiles(m.store)

	case chartCalculatedMsg:
		if msg.err != nil {
			return m.fail(fmt.Errorf("calculating chart: %w", msg.err)), nil
		}
		m.profile = msg.profile
		m.chart = &msg.chart
		m.state = StateDisplay
		return m, nil
	}

	// Handle keyboard input
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		// Global keys
		if keyMsg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// q would otherwise be typed into the form or the list filter
		if keyMsg.String() == "q" && m.state != StateForm && !m.filtering() {
			return m, tea.Quit
		}

		// State-specific handling
		switch m.state {
		case StateForm:
			return m.handleFormInput(keyMsg)

		case StateProfiles:
			return m.handleProfileList(keyMsg)

		case StateDisplay:
			return m.handleDisplay(keyMsg)

		case StateError:
			// Any key returns to where the error happened
			m.err = nil
			if m.returnTo == StateProfiles && len(m.profiles) > 0 {
				m.state = StateProfiles
				return m, nil
			}
			m.state = StateForm
			return m, textinput.Blink
		}
	}

	// Update appropriate component based on state
	switch m.state {
	case StateProvisioning, StateLoading:
		m.spinner, cmd = m.spinner.Update(msg)
	case StateForm:
		m.form, cmd = m.form.Update(msg)
	case StateProfiles:
		m.profileList, cmd = m.profileList.Update(msg)
	}

	return m, cmd
}

// fail moves to the error state
func (m Model) fail(err error) Model {
	m.err = err
	m.state = StateError
	return m
}

func (m Model) filtering() bool {
	return m.state == StateProfiles && m.profileList.FilterState() == list.Filtering
}

func (m Model) showForm() (tea.Model, tea.Cmd) {
	m.state = StateForm
	m.returnTo = StateForm
	m.form = newBirthForm(m.defaultSystem)
	return m, textinput.Blink
}

// systemFor picks the profile's house system, falling back to the default
func (m Model) systemFor(p models.Profile) houses.System {
	if p.HouseSystem == "" {
		return m.defaultSystem
	}
	s, err := houses.ParseSystem(p.HouseSystem)
	if err != nil {
		return m.defaultSystem
	}
	return s
}

func (m Model) calculate(p models.Profile, system houses.System) (tea.Model, tea.Cmd) {
	m.state = StateLoading
	m.system = system
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, calculateChart(m.calculator, p, system))
}

// handleFormInput handles keyboard input in form state
func (m Model) handleFormInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		return m, m.form.next()
	case "shift+tab", "up":
		return m, m.form.prev()
	case "esc":
		if len(m.profiles) > 0 {
			m.state = StateProfiles
			m.returnTo = StateProfiles
		}
		return m, nil
	case "enter", "ctrl+s":
		if msg.String() == "enter" && !m.form.onLastField() {
			return m, m.form.next()
		}
		return m.submit()
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// submit resolves the form through the store, or directly when no store
// is configured
func (m Model) submit() (tea.Model, tea.Cmd) {
	in := m.form.Input()
	m.returnTo = StateForm

	if m.store != nil {
		m.state = StateLoading
		return m, tea.Batch(m.spinner.Tick, submitProfile(m.store, in))
	}

	p, err := profiles.NewService(nil, nil, nil, nil).Resolve(context.Background(), in)
	if err != nil {
		return m.fail(err), nil
	}
	return m.calculate(*p, m.systemFor(*p))
}

// handleProfileList handles keyboard input in profile list state
func (m Model) handleProfileList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if !m.filtering() {
		switch msg.String() {
		case "enter":
			if item, ok := m.profileList.SelectedItem().(profileItem); ok {
				return m.calculate(item.profile, m.systemFor(item.profile))
			}
			return m, nil
		case "n":
			return m.showForm()
		case "d":
			if item, ok := m.profileList.SelectedItem().(profileItem); ok {
				return m, deleteProfile(m.store, item.profile.Name)
			}
			return m, nil
		}
	}

	m.profileList, cmd = m.profileList.Update(msg)
	return m, cmd
}

// handleDisplay handles keyboard input while a chart is shown
func (m Model) handleDisplay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.activePane = (m.activePane + 1) % paneCount
		return m, nil
	case "shift+tab":
		m.activePane = (m.activePane + paneCount - 1) % paneCount
		return m, nil
	case "h":
		// Cycle house systems and recalculate
		systems := houses.Systems()
		next := systems[0]
		for i, s := range systems {
			if s == m.system {
				next = systems[(i+1)%len(systems)]
			}
		}
		return m.calculate(m.profile, next)
	case "n":
		return m.showForm()
	case "s", "esc":
		m.chart = nil
		m.status = ""
		if m.store != nil {
			return m, fetchProfiles(m.store)
		}
		return m.showForm()
	}
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateProvisioning:
		return m.viewProvisioning()
	case StateForm:
		return m.viewForm()
	case StateProfiles:
		return m.viewProfiles()
	case StateLoading:
		return m.viewLoading()
	case StateDisplay:
		return m.viewDisplay()
	case StateError:
		return m.viewError()
	}

	return ""
}

// viewProvisioning renders the initial setup screen
func (m Model) viewProvisioning() string {
	title := titleStyle.Render("✶ Natal Terminal Setup")

	status := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Render(m.provisionStatus)

	info := helpStyle.Render("One-time setup: building place, time-zone and ephemeris data...")

	return lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		title,
		"",
		fmt.Sprintf("%s %s", m.spinner.View(), status),
		"",
		info,
	)
}

func (m Model) viewForm() string {
	title := titleStyle.Render("✶ Natal Terminal")
	help := helpStyle.Render("tab/↓ next • shift+tab/↑ previous • enter on last field or ctrl+s to calculate • esc saved profiles • ctrl+c quit")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		sectionBoxStyle.Render(m.form.View()),
		help,
	)
}

func (m Model) viewProfiles() string {
	help := helpStyle.Render("enter chart • n new • d delete • / filter • q quit")
	parts := []string{m.profileList.View()}
	if m.status != "" {
		parts = append(parts, mutedStyle.Render(m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(parts, help)...)
}

func (m Model) viewLoading() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		"",
		fmt.Sprintf("%s %s", m.spinner.View(), mutedStyle.Render("Calculating chart...")),
	)
}

// viewDisplay renders the chart with one pane per section
func (m Model) viewDisplay() string {
	if m.chart == nil {
		return m.viewLoading()
	}
	c := *m.chart

	name := m.profile.Name
	if name == "" {
		name = "Natal chart"
	}
	header := []string{titleStyle.Render("✶ " + name)}
	if m.profile.Place != "" {
		header = append(header, valueStyle.Render(m.profile.Place))
	}
	for i, line := range headerLines(c) {
		if i == 2 && c.Fallback() {
			header = append(header, warningStyle.Render(line))
			continue
		}
		header = append(header, valueStyle.Render(line))
	}

	panes := lipgloss.JoinHorizontal(
		lipgloss.Top,
		renderPane(PaneBodies, renderBodiesPane(c), m.activePane == PaneBodies),
		renderPane(PaneHouses, renderHousesPane(c), m.activePane == PaneHouses),
		renderPane(PaneAspects, renderAspectsPane(c), m.activePane == PaneAspects),
	)

	footer := []string{}
	if m.status != "" {
		footer = append(footer, mutedStyle.Render(m.status))
	}
	footer = append(footer, helpStyle.Render("tab switch pane • h next house system • n new chart • s back • q quit"))

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(header, "\n"),
		"",
		panes,
		strings.Join(footer, "\n"),
	)
}

// viewError renders the error view
func (m Model) viewError() string {
	msg := "unknown error"
	if m.err != nil {
		msg = m.err.Error()
	}
	code := models.CodeOf(m.err)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		"",
		errorStyle.Render(fmt.Sprintf("Error (%s)", code)),
		"",
		valueStyle.Render(msg),
		helpStyle.Render("Press any key to continue, ctrl+c to quit"),
	)
}
