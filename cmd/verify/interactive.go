package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/sp1-wasm-verifier/config"
	"github.com/wippyai/sp1-wasm-verifier/errors"
	"github.com/wippyai/sp1-wasm-verifier/fixture"
	"github.com/wippyai/sp1-wasm-verifier/verifier"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	schemeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	validStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelect modelState = iota
	stateFetch
	stateResult
)

type interactiveModel struct {
	err      error
	cfg      *config.Config
	logger   *zap.Logger
	verifier *verifier.Verifier
	result   *verifyResultMsg
	status   string
	fixtures []*fixture.Fixture
	input    textinput.Model
	selected int
	state    modelState
	loaded   bool
}

func newInteractiveModel(cfg *config.Config, logger *zap.Logger) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "fixture name"
	ti.Prompt = "fetch: "
	ti.Width = 40

	return &interactiveModel{
		cfg:    cfg,
		logger: logger,
		input:  ti,
		state:  stateSelect,
	}
}

type loadedMsg struct {
	err      error
	verifier *verifier.Verifier
	fixtures []*fixture.Fixture
}

type fixturesMsg struct {
	err      error
	status   string
	fixtures []*fixture.Fixture
}

type verifyResultMsg struct {
	err        error
	inspectErr error
	name       string
	inspection fixture.Inspection
	elapsed    time.Duration
	valid      bool
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	ctx := context.Background()

	fixtures, err := fixture.LoadDir(m.cfg.Fixtures.Dir)
	if err != nil {
		return loadedMsg{err: err}
	}

	v, err := verifier.Open(ctx, m.cfg.Module.Path, m.cfg.VerifierOptions(m.logger)...)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{verifier: v, fixtures: fixtures}
}

func (m *interactiveModel) reload(status string) tea.Cmd {
	return func() tea.Msg {
		fixtures, err := fixture.LoadDir(m.cfg.Fixtures.Dir)
		return fixturesMsg{err: err, status: status, fixtures: fixtures}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFetch {
			return m.updateFetch(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			if m.verifier != nil {
				_ = m.verifier.Close(context.Background())
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelect && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelect && m.selected < len(m.fixtures)-1 {
				m.selected++
			}

		case "r":
			if m.state == stateSelect {
				return m, m.reload("")
			}

		case "f":
			if m.state == stateSelect && m.cfg.Fixtures.BaseURL != "" && m.loaded {
				m.state = stateFetch
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink
			}

		case "enter":
			switch m.state {
			case stateSelect:
				if m.loaded && len(m.fixtures) > 0 {
					return m, m.verifySelected
				}
			case stateResult:
				m.state = stateSelect
				m.result = nil
			}

		case "esc":
			if m.state == stateResult {
				m.state = stateSelect
				m.result = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loaded = true
		m.verifier = msg.verifier
		m.fixtures = msg.fixtures

	case fixturesMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			return m, nil
		}
		m.fixtures = msg.fixtures
		if m.selected >= len(m.fixtures) {
			m.selected = max(len(m.fixtures)-1, 0)
		}

	case verifyResultMsg:
		m.result = &msg
		m.state = stateResult
	}

	return m, nil
}

func (m *interactiveModel) updateFetch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.state = stateSelect
		m.input.Blur()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		m.state = stateSelect
		m.input.Blur()
		if name == "" {
			return m, nil
		}
		m.status = "fetching " + name + "..."
		return m, m.fetch(name)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) fetch(name string) tea.Cmd {
	return func() tea.Msg {
		f, err := fetchFixture(context.Background(), m.cfg, name)
		if err != nil {
			return fixturesMsg{err: err, fixtures: m.fixtures}
		}
		path, err := f.Save(m.cfg.Fixtures.Dir)
		if err != nil {
			return fixturesMsg{err: err, fixtures: m.fixtures}
		}
		fixtures, err := fixture.LoadDir(m.cfg.Fixtures.Dir)
		return fixturesMsg{err: err, status: "saved " + path, fixtures: fixtures}
	}
}

func (m *interactiveModel) verifySelected() tea.Msg {
	f := m.fixtures[m.selected]
	res := verifyResultMsg{name: f.Name}

	req, err := f.Request()
	if err != nil {
		res.err = err
		return res
	}
	res.inspection, res.inspectErr = fixture.Inspect(req)

	start := time.Now()
	res.valid, res.err = m.verifier.Verify(context.Background(), req)
	res.elapsed = time.Since(start)
	return res
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if !m.loaded {
		return "Loading verifier module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("SP1 Verifier"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Module.Path)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelect, stateFetch:
		if len(m.fixtures) == 0 {
			b.WriteString(fmt.Sprintf("No fixtures in %s\n", m.cfg.Fixtures.Dir))
		} else {
			b.WriteString("Select a fixture to verify:\n\n")
		}
		for i, f := range m.fixtures {
			line := nameStyle.Render(f.Name) + " " + schemeStyle.Render(f.Scheme)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + f.Name + " " + f.Scheme))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFetch {
			b.WriteString(m.input.View())
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("enter fetch • esc cancel"))
			break
		}
		if m.status != "" {
			b.WriteString(helpStyle.Render(m.status))
			b.WriteString("\n")
		}
		help := "↑/↓ select • enter verify • r reload • q quit"
		if m.cfg.Fixtures.BaseURL != "" {
			help = "↑/↓ select • enter verify • f fetch • r reload • q quit"
		}
		b.WriteString(helpStyle.Render(help))

	case stateResult:
		m.viewResult(&b)
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) viewResult(b *strings.Builder) {
	r := m.result
	b.WriteString(fmt.Sprintf("Result of %s:\n\n", nameStyle.Render(r.name)))

	in := r.inspection
	if in.Scheme != "" {
		b.WriteString(fmt.Sprintf("  scheme   %s\n", schemeStyle.Render(in.Scheme.String())))
		b.WriteString(fmt.Sprintf("  proof    %d bytes %s\n", in.ProofSize, in.Selector))
		b.WriteString(fmt.Sprintf("  inputs   %d bytes\n", in.PublicInputsSize))
		b.WriteString(fmt.Sprintf("  digest   %s\n", in.PublicValuesDigest))
		if in.VKeyElement != "" {
			b.WriteString(fmt.Sprintf("  vkey     %s\n", in.VKeyElement))
		}
		if r.inspectErr != nil {
			b.WriteString(helpStyle.Render(fmt.Sprintf("  %v", r.inspectErr)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	switch {
	case r.err != nil:
		if gf, ok := errors.AsGuestFault(r.err); ok {
			b.WriteString(errorStyle.Render("Verifier fault: " + gf.Message))
		} else {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", r.err)))
		}
	case r.valid:
		b.WriteString(validStyle.Render(fmt.Sprintf("valid (%s)", r.elapsed.Round(time.Millisecond))))
	default:
		b.WriteString(errorStyle.Render(fmt.Sprintf("invalid (%s)", r.elapsed.Round(time.Millisecond))))
	}
}

func runInteractive(cfg *config.Config, logger *zap.Logger) error {
	p := tea.NewProgram(newInteractiveModel(cfg, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
