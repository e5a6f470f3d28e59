package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phonepilot/phonepilot/internal/device/adb"
	"github.com/phonepilot/phonepilot/internal/model"
	"github.com/phonepilot/phonepilot/internal/observability"
)

// newDoctorCmd creates the `doctor` command: verify the adb binary, the
// connected device, the automation keyboard, and the model endpoint.
func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that every collaborator is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := observability.GetLogger()
			failures := 0

			report := func(name string, err error) {
				if err != nil {
					failures++
					fmt.Printf("  [FAIL] %-22s %v\n", name, err)
					return
				}
				fmt.Printf("  [ ok ] %s\n", name)
			}

			fmt.Println("phonepilot doctor")

			manager := adb.NewManager(cfg.Device, cfg.Timing, logger)
			version, err := manager.Version(ctx)
			report("adb binary", err)
			if err == nil {
				fmt.Printf("         %s\n", version)
			}

			devices, err := manager.ListDevices(ctx)
			if err == nil && len(devices) == 0 {
				err = fmt.Errorf("no devices attached")
			}
			report("device attached", err)

			backend := adb.New(cfg.Device, cfg.Timing, logger)
			report("automation keyboard", checkKeyboard(ctx, backend))

			client := model.NewClient(cfg.Model, logger)
			report("model endpoint", client.TestConnection(ctx))

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
}

func checkKeyboard(ctx context.Context, backend *adb.Backend) error {
	installed, err := backend.HasAutomationKeyboard(ctx)
	if err != nil {
		return err
	}
	if !installed {
		return fmt.Errorf("ADBKeyboard IME not installed on the device")
	}
	return nil
}
