package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Probe the backend and show request statistics",
	Long: `Issue one request against every list endpoint and print the
per-operation latency statistics the client collected.

Examples:
  hivectl stats`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Touch every read surface once so the snapshot has data
	probes := []struct {
		name string
		call func() error
	}{
		{"farms", func() error { _, err := apiClient.ListFarms(ctx); return err }},
		{"hives", func() error { _, err := apiClient.ListHives(ctx); return err }},
		{"sensors", func() error { _, err := apiClient.ListSensors(ctx); return err }},
		{"devices", func() error { _, err := apiClient.ListDevices(ctx); return err }},
		{"alerts", func() error { _, err := apiClient.ListAlerts(ctx); return err }},
	}
	for _, p := range probes {
		if err := p.call(); err != nil {
			fmt.Printf("%-10s %s\n", p.name, defaultTheme.errorStyle().Render("unreachable"))
			if verbose {
				fmt.Printf("  %v\n", err)
			}
		} else {
			fmt.Printf("%-10s %s\n", p.name, defaultTheme.completedStyle().Render("ok"))
		}
	}

	snap := stats.Snapshot()
	fmt.Printf("\nOperations (uptime %.1fs):\n\n", snap.UptimeSeconds)

	names := make([]string, 0, len(snap.Operations))
	for name := range snap.Operations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		op := snap.Operations[name]
		fmt.Printf("  %-14s count=%d errors=%d avg=%.1fms min=%dms max=%dms\n",
			name, op.Count, op.Errors, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
	}
	return nil
}
