package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/apiarist/hivectl/internal/harvest"
	"github.com/apiarist/hivectl/internal/models"
)

var (
	harvestFarm   string
	harvestHive   string
	harvestDevice string
	harvestPlain  bool
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Start and follow honey harvests",
	Long: `Start a server-executed honey harvest and follow its progress.

The harvest runs on the backend; hivectl polls its status once a second
and renders the phase and progress until the job completes or fails.

Examples:
  hivectl harvest start --farm farm-1 --hive hive-2 --device device-1
  hivectl harvest status harvest-4f9a21be`,
}

var harvestStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a harvest for a selected hive and device",
	RunE:  runHarvestStart,
}

var harvestStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the current state of a harvest job",
	Args:  cobra.ExactArgs(1),
	RunE:  runHarvestStatus,
}

func init() {
	harvestStartCmd.Flags().StringVarP(&harvestFarm, "farm", "f", "", "farm id (required)")
	harvestStartCmd.Flags().StringVarP(&harvestHive, "hive", "b", "", "beehive id (required)")
	harvestStartCmd.Flags().StringVarP(&harvestDevice, "device", "d", "", "harvest device id (required)")
	harvestStartCmd.Flags().BoolVar(&harvestPlain, "plain", false, "log progress lines instead of the interactive view")
	_ = harvestStartCmd.MarkFlagRequired("farm")
	_ = harvestStartCmd.MarkFlagRequired("hive")
	_ = harvestStartCmd.MarkFlagRequired("device")

	harvestCmd.AddCommand(harvestStartCmd)
	harvestCmd.AddCommand(harvestStatusCmd)
}

// toastNotifier prints orchestrator notifications the way the mobile app
// shows toasts. The TUI swaps in its own notifier.
type toastNotifier struct{}

func (toastNotifier) Success(msg string) { fmt.Println(defaultTheme.completedStyle().Render(msg)) }
func (toastNotifier) Error(msg string)   { fmt.Println(defaultTheme.errorStyle().Render(msg)) }

// loadDirectory fetches the selection reference data in one pass.
func loadDirectory(ctx context.Context) (harvest.Directory, error) {
	farms, err := apiClient.ListFarms(ctx)
	if err != nil {
		return harvest.Directory{}, fmt.Errorf("load farms: %w", err)
	}
	hives, err := apiClient.ListHives(ctx)
	if err != nil {
		return harvest.Directory{}, fmt.Errorf("load hives: %w", err)
	}
	devices, err := apiClient.ListDevices(ctx)
	if err != nil {
		return harvest.Directory{}, fmt.Errorf("load devices: %w", err)
	}
	return harvest.Directory{Farms: farms, Hives: hives, Devices: devices}, nil
}

func runHarvestStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	dir, err := loadDirectory(ctx)
	if err != nil {
		return err
	}

	orch := harvest.New(apiClient, toastNotifier{}, logger,
		harvest.WithPollInterval(cfg.PollInterval))
	defer orch.Close()
	orch.SetDirectory(dir)

	if err := orch.SelectFarm(harvestFarm); err != nil {
		exitWithError("%v", err)
	}
	if err := orch.SelectBeehive(harvestHive); err != nil {
		exitWithError("%v", err)
	}
	if err := orch.SelectDevice(harvestDevice); err != nil {
		exitWithError("%v", err)
	}

	if err := orch.Start(ctx); err != nil {
		return err
	}

	if harvestPlain {
		return followPlain(ctx, orch)
	}
	return RunHarvestProgress(orch, cfg.PollInterval)
}

// followPlain prints one line per state change until the job ends. Used
// when stdout is not a terminal worth drawing on.
func followPlain(ctx context.Context, orch *harvest.Orchestrator) error {
	last := harvest.Status{}
	for {
		st := orch.Snapshot()
		if st.State != last.State || st.Progress != last.Progress {
			fmt.Printf("%s %d%%\n", st.Label(), st.Percent())
			last = st
		}
		if st.State.Terminal() {
			if st.State == models.StateFailed {
				return fmt.Errorf("harvest failed")
			}
			return nil
		}
		if !orch.Polling() && st.State == models.StateIdle {
			return fmt.Errorf("harvest did not start")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.PollInterval):
		}
	}
}

func runHarvestStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	st, err := apiClient.HarvestStatusByID(ctx, args[0])
	if err != nil {
		return err
	}

	pct := 0
	if st.Progress != nil {
		pct = *st.Progress
	}
	fmt.Printf("%s: %s (%d%%)\n", args[0], models.PhaseLabel(st.State), models.ProgressPercent(st.State, pct))
	if st.Message != "" {
		fmt.Printf("  %s\n", st.Message)
	}
	return nil
}
