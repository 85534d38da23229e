package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harshul/phpack/internal/build"
)

type stageState int

const (
	stagePending stageState = iota
	stageRunning
	stageDone
	stageFailed
)

// buildEventMsg carries a pipeline event into the program.
type buildEventMsg build.Event

// buildDoneMsg is sent once the build function returns.
type buildDoneMsg struct {
	result *build.Result
	err    error
}

// BuildModel shows the four pipeline stages with a spinner on the running one.
type BuildModel struct {
	projectID string
	spinner   spinner.Model
	quit      key.Binding
	states    map[build.Stage]stageState
	elapsed   map[build.Stage]time.Duration
	launchers []string
	events    chan tea.Msg

	result   *build.Result
	err      error
	done     bool
	canceled bool
}

// NewBuildModel returns a model for projectID.
func NewBuildModel(projectID string) *BuildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(highlight)

	return &BuildModel{
		projectID: projectID,
		spinner:   s,
		quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "cancel")),
		states:    make(map[build.Stage]stageState),
		elapsed:   make(map[build.Stage]time.Duration),
		events:    make(chan tea.Msg, 64),
	}
}

// Observe feeds a pipeline event to the model. It is safe to call from the
// building goroutine.
func (m *BuildModel) Observe(e build.Event) {
	m.events <- buildEventMsg(e)
}

// Finish reports the build outcome and ends the program.
func (m *BuildModel) Finish(res *build.Result, err error) {
	m.events <- buildDoneMsg{result: res, err: err}
}

// Canceled reports whether the user quit before the build finished.
func (m *BuildModel) Canceled() bool {
	return m.canceled
}

func (m *BuildModel) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// Init implements tea.Model
func (m *BuildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

// Update implements tea.Model
func (m *BuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.quit) {
			m.canceled = true
			return m, tea.Quit
		}
	case buildEventMsg:
		m.apply(build.Event(msg))
		return m, m.listen()
	case buildDoneMsg:
		m.result, m.err, m.done = msg.result, msg.err, true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *BuildModel) apply(e build.Event) {
	switch e.Kind {
	case build.StageStarted:
		m.states[e.Stage] = stageRunning
	case build.StageFinished:
		m.states[e.Stage] = stageDone
		m.elapsed[e.Stage] = e.Elapsed
	case build.StageFailed:
		m.states[e.Stage] = stageFailed
		m.elapsed[e.Stage] = e.Elapsed
	case build.LauncherWritten:
		m.launchers = append(m.launchers, e.Platform)
	}
}

// View implements tea.Model
func (m *BuildModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("📦 building "+m.projectID) + "\n\n")

	for _, stage := range build.Stages {
		var icon string
		switch m.states[stage] {
		case stagePending:
			icon = dimStyle.Render("·")
		case stageRunning:
			icon = m.spinner.View()
		case stageDone:
			icon = successStyle.Render("✓")
		case stageFailed:
			icon = errorStyle.Render("✗")
		}
		line := fmt.Sprintf("%s %s", icon, stage)
		if d, ok := m.elapsed[stage]; ok {
			line += dimStyle.Render(fmt.Sprintf("  %s", d.Round(time.Millisecond)))
		}
		b.WriteString(line + "\n")
		if stage == build.StageLaunchers {
			for _, p := range m.launchers {
				b.WriteString(dimStyle.Render("    "+p) + "\n")
			}
		}
	}

	if !m.done {
		b.WriteString("\n" + dimStyle.Render(m.quit.Help().Key+" "+m.quit.Help().Desc) + "\n")
	}
	return b.String()
}

// Result returns the outcome delivered by Finish.
func (m *BuildModel) Result() (*build.Result, error) {
	return m.result, m.err
}

// PlainObserver prints pipeline events as lines, for non-interactive output.
func PlainObserver(w io.Writer) func(build.Event) {
	return func(e build.Event) {
		switch e.Kind {
		case build.StageStarted:
			fmt.Fprintf(w, "→ %s\n", e.Stage)
		case build.StageFinished:
			fmt.Fprintf(w, "✓ %s (%s)\n", e.Stage, e.Elapsed.Round(time.Millisecond))
		case build.StageFailed:
			fmt.Fprintf(w, "✗ %s: %v\n", e.Stage, e.Err)
		case build.LauncherWritten:
			fmt.Fprintf(w, "  %s → %s\n", e.Platform, e.Path)
		case build.BuildFinished:
			fmt.Fprintf(w, "staging tree ready at %s\n", e.Path)
		}
	}
}
