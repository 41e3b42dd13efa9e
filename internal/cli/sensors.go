package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apiarist/hivectl/internal/models"
)

var (
	sensorID      string
	sensorHiveID  string
	sensorName    string
	sensorCapture []string
)

var sensorsCmd = &cobra.Command{
	Use:   "sensors",
	Short: "List and manage field sensors",
	Long: `List the sensors attached to beehives, or add, update and remove
them.

Examples:
  hivectl sensors
  hivectl sensors add --hive hive-1 --name "Brood temp" --capture temperature
  hivectl sensors remove sensor-2`,
	RunE: runSensorsList,
}

var sensorsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a sensor",
	RunE:  runSensorsAdd,
}

var sensorsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a sensor",
	RunE:  runSensorsUpdate,
}

var sensorsRemoveCmd = &cobra.Command{
	Use:   "remove <sensor-id>",
	Short: "Remove a sensor",
	Args:  cobra.ExactArgs(1),
	RunE:  runSensorsRemove,
}

func init() {
	sensorsAddCmd.Flags().StringVar(&sensorHiveID, "hive", "", "beehive id (required)")
	sensorsAddCmd.Flags().StringVar(&sensorName, "name", "", "sensor name (required)")
	sensorsAddCmd.Flags().StringSliceVar(&sensorCapture, "capture", nil, "captured measurements (temperature, humidity, weight, sound)")
	_ = sensorsAddCmd.MarkFlagRequired("hive")
	_ = sensorsAddCmd.MarkFlagRequired("name")

	sensorsUpdateCmd.Flags().StringVar(&sensorID, "id", "", "sensor id (required)")
	sensorsUpdateCmd.Flags().StringVar(&sensorHiveID, "hive", "", "beehive id")
	sensorsUpdateCmd.Flags().StringVar(&sensorName, "name", "", "sensor name")
	sensorsUpdateCmd.Flags().StringSliceVar(&sensorCapture, "capture", nil, "captured measurements")
	_ = sensorsUpdateCmd.MarkFlagRequired("id")

	sensorsCmd.AddCommand(sensorsAddCmd)
	sensorsCmd.AddCommand(sensorsUpdateCmd)
	sensorsCmd.AddCommand(sensorsRemoveCmd)
}

func runSensorsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sensors, err := apiClient.ListSensors(ctx)
	if err != nil {
		return err
	}
	if len(sensors) == 0 {
		fmt.Println("No sensors found.")
		return nil
	}

	fmt.Printf("Sensors (%d):\n\n", len(sensors))
	for _, s := range sensors {
		status := s.Status
		if status == "offline" {
			status = defaultTheme.errorStyle().Render(status)
		}
		fmt.Printf("- %-10s %s [%s] hive %s\n", s.ID, s.Name, status, s.BeehiveID)
		if verbose && len(s.DataCapture) > 0 {
			fmt.Printf("  captures: %s\n", strings.Join(s.DataCapture, ", "))
		}
	}
	return nil
}

func runSensorsAdd(cmd *cobra.Command, args []string) error {
	sensor := models.Sensor{
		BeehiveID:   sensorHiveID,
		Name:        sensorName,
		Status:      "online",
		DataCapture: sensorCapture,
	}
	if err := apiClient.CreateSensor(context.Background(), sensor); err != nil {
		return err
	}
	fmt.Printf("Added sensor %q.\n", sensorName)
	return nil
}

func runSensorsUpdate(cmd *cobra.Command, args []string) error {
	sensor := models.Sensor{
		ID:          sensorID,
		BeehiveID:   sensorHiveID,
		Name:        sensorName,
		DataCapture: sensorCapture,
	}
	if err := apiClient.UpdateSensor(context.Background(), sensor); err != nil {
		return err
	}
	fmt.Printf("Updated sensor %s.\n", sensorID)
	return nil
}

func runSensorsRemove(cmd *cobra.Command, args []string) error {
	if err := apiClient.DeleteSensor(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed sensor %s.\n", args[0])
	return nil
}
