package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apiarist/hivectl/internal/models"
)

var (
	hiveID     string
	hiveFarmID string
	hiveName   string
)

var hivesCmd = &cobra.Command{
	Use:   "hives",
	Short: "List and manage beehives",
	Long: `List beehives with their harvest readiness, or add, update and
remove them.

Examples:
  hivectl hives
  hivectl hives --farm farm-1
  hivectl hives add --farm farm-1 --name "Hive 12"
  hivectl hives remove hive-3`,
	RunE: runHivesList,
}

var hivesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a beehive",
	RunE:  runHivesAdd,
}

var hivesUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a beehive",
	RunE:  runHivesUpdate,
}

var hivesRemoveCmd = &cobra.Command{
	Use:   "remove <hive-id>",
	Short: "Remove a beehive",
	Args:  cobra.ExactArgs(1),
	RunE:  runHivesRemove,
}

func init() {
	hivesCmd.Flags().StringVarP(&hiveFarmID, "farm", "f", "", "only hives of this farm")

	hivesAddCmd.Flags().StringVarP(&hiveFarmID, "farm", "f", "", "farm id (required)")
	hivesAddCmd.Flags().StringVar(&hiveName, "name", "", "hive name (required)")
	_ = hivesAddCmd.MarkFlagRequired("farm")
	_ = hivesAddCmd.MarkFlagRequired("name")

	hivesUpdateCmd.Flags().StringVar(&hiveID, "id", "", "hive id (required)")
	hivesUpdateCmd.Flags().StringVarP(&hiveFarmID, "farm", "f", "", "farm id")
	hivesUpdateCmd.Flags().StringVar(&hiveName, "name", "", "hive name")
	_ = hivesUpdateCmd.MarkFlagRequired("id")

	hivesCmd.AddCommand(hivesAddCmd)
	hivesCmd.AddCommand(hivesUpdateCmd)
	hivesCmd.AddCommand(hivesRemoveCmd)
}

func runHivesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	hives, err := apiClient.ListHives(ctx)
	if err != nil {
		return err
	}
	if hiveFarmID != "" {
		filtered := hives[:0]
		for _, h := range hives {
			if h.FarmID == hiveFarmID {
				filtered = append(filtered, h)
			}
		}
		hives = filtered
	}
	if len(hives) == 0 {
		fmt.Println("No hives found.")
		return nil
	}

	fmt.Printf("Hives (%d):\n\n", len(hives))
	for _, h := range hives {
		alertMark := ""
		if h.HasAlert {
			alertMark = " " + defaultTheme.warningStyle().Render("[alert]")
		}
		fmt.Printf("- %-10s %s (farm %s)%s\n", h.ID, h.Name, h.FarmID, alertMark)
		if verbose {
			fmt.Printf("  status: %s, production: %.1f kg\n", h.HarvestStatus, h.HoneyProduction)
		}
	}
	return nil
}

func runHivesAdd(cmd *cobra.Command, args []string) error {
	hive := models.Beehive{FarmID: hiveFarmID, Name: hiveName}
	if err := apiClient.CreateHive(context.Background(), hive); err != nil {
		return err
	}
	fmt.Printf("Added hive %q.\n", hiveName)
	return nil
}

func runHivesUpdate(cmd *cobra.Command, args []string) error {
	hive := models.Beehive{ID: hiveID, FarmID: hiveFarmID, Name: hiveName}
	if err := apiClient.UpdateHive(context.Background(), hive); err != nil {
		return err
	}
	fmt.Printf("Updated hive %s.\n", hiveID)
	return nil
}

func runHivesRemove(cmd *cobra.Command, args []string) error {
	if err := apiClient.DeleteHive(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed hive %s.\n", args[0])
	return nil
}
