package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/spf13/cobra"

	"github.com/apiarist/hivectl/internal/alerts"
	"github.com/apiarist/hivectl/internal/metrics"
	"github.com/apiarist/hivectl/internal/models"
)

var watchLimit int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the live alert stream",
	Long: `Subscribe to the backend's push channel and keep a live, merged view
of the alert list. New alerts and updates to known alerts land in place.

Keys:
  s        toggle sort (criticality / timestamp)
  q, esc   quit

Examples:
  hivectl watch
  hivectl watch --limit 20`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVarP(&watchLimit, "limit", "n", 15, "max alerts on screen")
}

// alertMsg carries one merged alert from the stream goroutine.
type alertMsg models.AlertRecord

// streamDoneMsg ends the view when the stream does.
type streamDoneMsg struct{ err error }

// watchModel is the bubbletea model for the live alert view.
type watchModel struct {
	rec    *alerts.Reconciler
	mode   alerts.SortMode
	theme  Theme
	limit  int
	events int
	last   string
	err    error
}

func (m watchModel) Init() tea.Cmd { return nil }

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "s":
			if m.mode == alerts.SortCriticality {
				m.mode = alerts.SortTimestamp
			} else {
				m.mode = alerts.SortCriticality
			}
		}

	case alertMsg:
		m.events++
		m.last = msg.ID

	case streamDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m watchModel) View() tea.View {
	var b strings.Builder

	counts := m.rec.CountBySeverity()
	header := fmt.Sprintf("Alerts  %d total  %d unread  |  %s %d  %s %d  %s %d",
		m.rec.Len(), m.rec.UnreadCount(),
		severityStyle(models.SeverityCritical), counts[models.SeverityCritical],
		severityStyle(models.SeverityWarning), counts[models.SeverityWarning],
		severityStyle(models.SeverityInfo), counts[models.SeverityInfo])
	b.WriteString(header + "\n\n")

	list := m.rec.Sorted(m.mode)
	if len(list) > m.limit {
		list = list[:m.limit]
	}
	for _, a := range list {
		marker := m.theme.unreadStyle().Render("●")
		if a.Read {
			marker = " "
		}
		line := fmt.Sprintf("%s %-8s %s", marker, severityStyle(a.Severity), a.Title)
		if a.ID == m.last {
			line += m.theme.hintStyle().Render("  ← new")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + m.theme.hintStyle().Render(
		fmt.Sprintf("sort: %s  events: %d  |  s toggle sort, q quit", m.mode, m.events)))
	return tea.NewView(b.String())
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := alerts.NewReconciler(apiClient, logger)
	if err := rec.Load(ctx); err != nil {
		return err
	}

	var opener alerts.StreamOpener = alerts.OpenerFunc(func(ctx context.Context) (alerts.Stream, error) {
		return apiClient.OpenAlertStream(ctx)
	})
	if cfg.StreamReconnect {
		opener = &alerts.ReconnectingOpener{Inner: opener, Log: logger}
	}

	model := watchModel{
		rec:   rec,
		mode:  alerts.SortCriticality,
		theme: defaultTheme,
		limit: watchLimit,
	}
	p := tea.NewProgram(model)

	go func() {
		err := rec.Run(ctx, opener, func(a models.AlertRecord) {
			stats.Count(metrics.OpStreamEvent)
			p.Send(alertMsg(a))
		})
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		p.Send(streamDoneMsg{err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("watch UI error: %w", err)
	}
	if m, ok := finalModel.(watchModel); ok && m.err != nil {
		return fmt.Errorf("alert stream: %w", m.err)
	}
	return nil
}
