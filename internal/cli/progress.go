package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/apiarist/hivectl/internal/harvest"
	"github.com/apiarist/hivectl/internal/models"
)

// Theme holds the color scheme for the interactive views.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Hint    lipgloss.Color
	Unread  lipgloss.Color
}

// defaultTheme leans on honey and amber tones.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#FFAF00"), // amber
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Warning: lipgloss.Color("#FF8700"), // orange
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Unread:  lipgloss.Color("#FFD75F"), // pale honey
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) warningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Warning)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) unreadStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Unread).Bold(true)
}

// tickMsg triggers reading the next orchestrator snapshot
type tickMsg time.Time

// progressModel is the bubbletea model for the harvest progress view. The
// orchestrator polls the backend on its own; the view only snapshots it.
type progressModel struct {
	orch     *harvest.Orchestrator
	status   harvest.Status
	progress progress.Model
	theme    Theme
	interval time.Duration
	done     bool
	quitting bool
}

// newProgressModel creates a new progress model refreshing at interval.
func newProgressModel(orch *harvest.Orchestrator, interval time.Duration) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	if interval <= 0 {
		interval = harvest.DefaultPollInterval
	}

	return progressModel{
		orch:     orch,
		status:   orch.Snapshot(),
		progress: prog,
		theme:    defaultTheme,
		interval: interval,
	}
}

// Init returns the initial command (start ticking).
func (m progressModel) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		m.status = m.orch.Snapshot()

		if m.status.State.Terminal() {
			m.done = true
			return m, tea.Quit
		}
		if m.status.State == models.StateIdle && !m.orch.Polling() {
			// Start failed and the orchestrator rolled back
			m.done = true
			return m, tea.Quit
		}
		return m, m.tickCmd()

	case progress.FrameMsg:
		// Update progress bar animation
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.status.Label()))
	bar := m.progress.ViewAs(float64(m.status.Percent()) / 100)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %d%%\n%s\n", status, bar, m.status.Percent(), hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		msg := fmt.Sprintf("\nHarvest %s continues in background.\nUse 'hivectl harvest status %s' to check on it.\n",
			m.status.JobID, m.status.JobID)
		return m.theme.hintStyle().Render(msg)
	}

	switch m.status.State {
	case models.StateCompleted:
		return m.theme.completedStyle().Render("✓ Harvest complete\n")
	case models.StateFailed:
		return m.theme.errorStyle().Render("✗ Harvest failed\n")
	}
	return m.theme.errorStyle().Render("✗ Harvest did not start\n")
}

// tickCmd returns a command that sends a tick after the refresh interval.
// The view refreshes at the same cadence the orchestrator polls at, so a
// configured sub-second interval shows up on screen too.
func (m progressModel) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// RunHarvestProgress runs the interactive progress UI for a started
// harvest. Returns nil on success or Ctrl+C (the job keeps running on the
// server), an error when the job failed.
func RunHarvestProgress(orch *harvest.Orchestrator, interval time.Duration) error {
	model := newProgressModel(orch, interval)
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(progressModel); ok {
		if m.quitting {
			return nil
		}
		if m.status.State == models.StateFailed {
			return fmt.Errorf("harvest failed")
		}
	}

	return nil
}
