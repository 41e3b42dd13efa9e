package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apiarist/hivectl/internal/models"
)

var devicesAvailable bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List harvest devices",
	Long: `List the honey extraction devices known to the backend. Only
available devices can be selected for a harvest.

Examples:
  hivectl devices
  hivectl devices --available`,
	RunE: runDevicesList,
}

func init() {
	devicesCmd.Flags().BoolVar(&devicesAvailable, "available", false, "only devices free for a harvest")
}

func runDevicesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	devices, err := apiClient.ListDevices(ctx)
	if err != nil {
		return err
	}
	if devicesAvailable {
		filtered := devices[:0]
		for _, d := range devices {
			if d.Status == models.DeviceAvailable {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}
	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return nil
	}

	fmt.Printf("Devices (%d):\n\n", len(devices))
	for _, d := range devices {
		status := d.Status
		if status != models.DeviceAvailable {
			status = defaultTheme.warningStyle().Render(status)
		}
		fmt.Printf("- %-10s %s [%s]\n", d.ID, d.Name, status)
	}
	return nil
}
