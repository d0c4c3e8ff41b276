package tui

import (
	"os/exec"
	"runtime"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spiffcs/ciwatch/internal/constants"
	"github.com/spiffcs/ciwatch/internal/model"
)

// Commander issues commands to the polling engine.
// *poller.Handle satisfies it.
type Commander interface {
	AddPR(pr model.WatchedPR)
	RemovePR(pr model.WatchedPR)
	ClearPRs()
	Tick()
}

// Model is the Bubble Tea model for the PR status dashboard.
type Model struct {
	rows      []model.PRSnapshot
	cursor    int

	// watched is what the dashboard has asked the poller to watch. Entries
	// missing from the latest snapshot get placeholder rows listed in
	// unavailable, so a PR whose fetch keeps failing can still be removed.
	watched     []model.WatchedPR
	unavailable []model.WatchedPR

	updatedAt time.Time
	now       func() time.Time

	spinner  spinner.Model
	progress progress.Model
	input    textinput.Model
	adding   bool

	events    <-chan Event
	commander Commander

	rateLimited    bool
	rateLimitReset time.Time

	statusMsg    string
	windowWidth  int
	windowHeight int
	quitting     bool
}

// doneMsg signals that the event channel was closed.
type doneMsg struct{}

// ageTickMsg redraws the "updated" age.
type ageTickMsg struct{}

// clearStatusMsg is a message to clear the status
type clearStatusMsg struct{}

// NewModel creates a dashboard fed by events that sends commands to c.
// watched lists the PRs the poller was started with.
func NewModel(events <-chan Event, c Commander, watched ...model.WatchedPR) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	p := progress.New(
		progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
		progress.WithWidth(20),
		progress.WithoutPercentage(),
	)

	in := textinput.New()
	in.Placeholder = "owner/repo#123"
	in.Prompt = promptStyle.Render("add> ")
	in.CharLimit = 200

	return Model{
		watched:      slices.Clone(watched),
		spinner:      s,
		progress:     p,
		input:        in,
		events:       events,
		commander:    c,
		now:          time.Now,
		windowWidth:  80,
		windowHeight: 24,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
		ageTick(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.adding {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotEvent:
		m.applySnapshots(msg)
		return m, waitForEvent(m.events)

	case RateLimitEvent:
		m.rateLimited = msg.Limited
		m.rateLimitReset = msg.ResetAt
		return m, waitForEvent(m.events)

	case DoneEvent, doneMsg:
		m.quitting = true
		return m, tea.Quit

	case ageTickMsg:
		return m, ageTick()

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil
	}

	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applySnapshots replaces every row, keeping the cursor on the same PR
// when it is still present.
func (m *Model) applySnapshots(e SnapshotEvent) {
	var selected model.WatchedPR
	hadSelection := m.cursor < len(m.rows)
	if hadSelection {
		selected = m.rows[m.cursor].PR()
	}

	rows := slices.Clone(e.Snapshots)
	m.unavailable = nil
	for _, pr := range m.watched {
		if slices.ContainsFunc(rows, func(s model.PRSnapshot) bool { return s.PR().Equal(pr) }) {
			continue
		}
		rows = append(rows, model.PRSnapshot{Owner: pr.Owner, Repo: pr.Repo, Number: pr.Number})
		m.unavailable = append(m.unavailable, pr)
	}
	model.SortSnapshots(rows)
	m.rows = rows
	m.updatedAt = e.At
	if m.updatedAt.IsZero() {
		m.updatedAt = m.now()
	}

	if hadSelection {
		if i := slices.IndexFunc(rows, func(s model.PRSnapshot) bool { return s.PR().Equal(selected) }); i >= 0 {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "a":
		m.adding = true
		m.input.SetValue("")
		return m, m.input.Focus()

	case "d", "x":
		if len(m.rows) == 0 {
			return m, nil
		}
		pr := m.rows[m.cursor].PR()
		m.forget(pr)
		m.commander.RemovePR(pr)
		return m.setStatus("Removing " + pr.String())

	case "C":
		m.watched = nil
		m.commander.ClearPRs()
		return m.setStatus("Clearing all pull requests")

	case "r":
		m.commander.Tick()
		return m.setStatus("Refreshing")

	case "enter", "o":
		if len(m.rows) == 0 {
			return m, nil
		}
		row := m.rows[m.cursor]
		url := row.RunURL
		if url == "" {
			url = row.PRURL
		}
		if url == "" {
			return m.setStatus("No URL available")
		}
		return m, openURL(url)
	}

	return m, nil
}

// handleInputKey processes keys while the add prompt is open.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.adding = false
		m.input.Blur()
		return m, nil

	case "enter":
		pr, err := model.ParseWatchedPR(m.input.Value())
		if err != nil {
			m.statusMsg = "Error: " + err.Error()
			return m, clearStatusAfter(3 * time.Second)
		}
		m.adding = false
		m.input.Blur()
		if !slices.ContainsFunc(m.watched, pr.Equal) {
			m.watched = append(m.watched, pr)
		}
		m.commander.AddPR(pr)
		return m.setStatus("Watching " + pr.String())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) forget(pr model.WatchedPR) {
	m.watched = slices.DeleteFunc(slices.Clone(m.watched), pr.Equal)
}

// isUnavailable reports whether pr's row is a placeholder for a failed fetch.
func (m Model) isUnavailable(pr model.WatchedPR) bool {
	return slices.ContainsFunc(m.unavailable, pr.Equal)
}

func (m Model) setStatus(msg string) (tea.Model, tea.Cmd) {
	m.statusMsg = msg
	return m, clearStatusAfter(2 * time.Second)
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return renderDashboard(m)
}

// waitForEvent creates a command that waits for the next event.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}

func ageTick() tea.Cmd {
	return tea.Tick(constants.AgeRefreshInterval, func(time.Time) tea.Msg {
		return ageTickMsg{}
	})
}

// clearStatusAfter returns a command that clears the status after a delay
func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// openURL opens a URL in the default browser
func openURL(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd

		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "linux":
			cmd = exec.Command("xdg-open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			return nil
		}

		_ = cmd.Start()
		return nil
	}
}
