package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apiarist/hivectl/internal/models"
)

var (
	farmID       string
	farmName     string
	farmLocation string
)

var farmsCmd = &cobra.Command{
	Use:   "farms",
	Short: "List and manage farms",
	Long: `List apiary farms, or add, update and remove them.

Examples:
  hivectl farms
  hivectl farms add --name "South Meadow" --location "back field"
  hivectl farms update --id farm-1 --name "South Meadow II"
  hivectl farms remove farm-1`,
	RunE: runFarmsList,
}

var farmsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a farm",
	RunE:  runFarmsAdd,
}

var farmsUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a farm",
	RunE:  runFarmsUpdate,
}

var farmsRemoveCmd = &cobra.Command{
	Use:   "remove <farm-id>",
	Short: "Remove a farm",
	Args:  cobra.ExactArgs(1),
	RunE:  runFarmsRemove,
}

func init() {
	farmsAddCmd.Flags().StringVar(&farmName, "name", "", "farm name (required)")
	farmsAddCmd.Flags().StringVar(&farmLocation, "location", "", "farm location")
	_ = farmsAddCmd.MarkFlagRequired("name")

	farmsUpdateCmd.Flags().StringVar(&farmID, "id", "", "farm id (required)")
	farmsUpdateCmd.Flags().StringVar(&farmName, "name", "", "farm name")
	farmsUpdateCmd.Flags().StringVar(&farmLocation, "location", "", "farm location")
	_ = farmsUpdateCmd.MarkFlagRequired("id")

	farmsCmd.AddCommand(farmsAddCmd)
	farmsCmd.AddCommand(farmsUpdateCmd)
	farmsCmd.AddCommand(farmsRemoveCmd)
}

func runFarmsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	farms, err := apiClient.ListFarms(ctx)
	if err != nil {
		return err
	}
	if len(farms) == 0 {
		fmt.Println("No farms found.")
		return nil
	}

	fmt.Printf("Farms (%d):\n\n", len(farms))
	for _, f := range farms {
		fmt.Printf("- %-10s %s", f.ID, f.Name)
		if f.Location != "" {
			fmt.Printf(" (%s)", f.Location)
		}
		fmt.Println()
	}
	return nil
}

func runFarmsAdd(cmd *cobra.Command, args []string) error {
	farm := models.Farm{Name: farmName, Location: farmLocation}
	if err := apiClient.CreateFarm(context.Background(), farm); err != nil {
		return err
	}
	fmt.Printf("Added farm %q.\n", farmName)
	return nil
}

func runFarmsUpdate(cmd *cobra.Command, args []string) error {
	farm := models.Farm{ID: farmID, Name: farmName, Location: farmLocation}
	if err := apiClient.UpdateFarm(context.Background(), farm); err != nil {
		return err
	}
	fmt.Printf("Updated farm %s.\n", farmID)
	return nil
}

func runFarmsRemove(cmd *cobra.Command, args []string) error {
	if err := apiClient.DeleteFarm(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Removed farm %s.\n", args[0])
	return nil
}
