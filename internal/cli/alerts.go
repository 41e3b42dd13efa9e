package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/apiarist/hivectl/internal/alerts"
	"github.com/apiarist/hivectl/internal/models"
)

var alertsSort string

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List and acknowledge apiary alerts",
	Long: `List alerts from the backend, most urgent first.

Subcommands:
  list     List alerts (default)
  read     Mark an alert as read
  summary  Severity counts and a 24h trend

Examples:
  hivectl alerts
  hivectl alerts --sort timestamp
  hivectl alerts read alert-1
  hivectl alerts summary`,
	RunE: runAlertsList,
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts",
	RunE:  runAlertsList,
}

var alertsReadCmd = &cobra.Command{
	Use:   "read <alert-id>",
	Short: "Mark an alert as read",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertsRead,
}

var alertsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Severity counts and a 24h trend",
	RunE:  runAlertsSummary,
}

func init() {
	alertsCmd.PersistentFlags().StringVarP(&alertsSort, "sort", "s", string(alerts.SortCriticality),
		"sort order: criticality or timestamp")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsReadCmd)
	alertsCmd.AddCommand(alertsSummaryCmd)
}

func sortMode() alerts.SortMode {
	if alertsSort == string(alerts.SortTimestamp) {
		return alerts.SortTimestamp
	}
	return alerts.SortCriticality
}

func severityStyle(s models.Severity) string {
	label := strings.ToUpper(string(s))
	switch s {
	case models.SeverityCritical:
		return defaultTheme.errorStyle().Render(label)
	case models.SeverityWarning:
		return defaultTheme.warningStyle().Render(label)
	default:
		return defaultTheme.hintStyle().Render(label)
	}
}

func printAlert(a models.AlertRecord) {
	marker := defaultTheme.unreadStyle().Render("●")
	if a.Read {
		marker = " "
	}
	when := ""
	if a.TimestampMs > 0 {
		when = time.UnixMilli(a.TimestampMs).Local().Format("Jan 02 15:04")
	}
	fmt.Printf("%s %-8s %-18s %s\n", marker, severityStyle(a.Severity), a.ID, a.Title)
	if verbose {
		if a.Message != "" {
			fmt.Printf("    %s\n", a.Message)
		}
		place := a.BeehiveName
		if a.FarmName != "" {
			place = strings.TrimPrefix(place+" @ "+a.FarmName, " @ ")
		}
		if place != "" || when != "" {
			fmt.Printf("    %s  %s\n", place, when)
		}
	}
}

func runAlertsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rec := alerts.NewReconciler(apiClient, logger)
	if err := rec.Load(ctx); err != nil {
		return err
	}

	list := rec.Sorted(sortMode())
	if len(list) == 0 {
		fmt.Println("No alerts.")
		return nil
	}

	fmt.Printf("Alerts (%d, %d unread):\n\n", len(list), rec.UnreadCount())
	for _, a := range list {
		printAlert(a)
	}
	return nil
}

func runAlertsRead(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rec := alerts.NewReconciler(apiClient, logger)
	if err := rec.Load(ctx); err != nil {
		return err
	}

	id := args[0]
	if _, ok := rec.Get(id); !ok {
		exitWithError("alert %q not found", id)
	}

	if err := rec.MarkAsRead(ctx, id); err != nil {
		return err
	}

	a, _ := rec.Get(id)
	fmt.Printf("Marked as read:\n\n")
	printAlert(a)
	return nil
}

func runAlertsSummary(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rec := alerts.NewReconciler(apiClient, logger)
	if err := rec.Load(ctx); err != nil {
		return err
	}

	counts := rec.CountBySeverity()
	fmt.Printf("Alerts: %d total, %d unread\n", rec.Len(), rec.UnreadCount())
	fmt.Printf("  %s %d   %s %d   %s %d\n",
		severityStyle(models.SeverityCritical), counts[models.SeverityCritical],
		severityStyle(models.SeverityWarning), counts[models.SeverityWarning],
		severityStyle(models.SeverityInfo), counts[models.SeverityInfo])

	buckets := rec.HourlyTrend(time.Now())
	fmt.Println("\nLast 24h:")
	for _, b := range buckets {
		if b.Total == 0 {
			continue
		}
		fmt.Printf("  %s  %s (%d)\n",
			b.Start.Local().Format("15:04"),
			strings.Repeat("▪", b.Total),
			b.Total)
	}
	return nil
}
