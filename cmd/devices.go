package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phonepilot/phonepilot/internal/device/adb"
	"github.com/phonepilot/phonepilot/internal/i18n"
	"github.com/phonepilot/phonepilot/internal/observability"
)

// newDevicesCmd creates the `devices` command group for adb connection
// management.
func newDevicesCmd() *cobra.Command {
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List and manage device connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := newManager()
			if err != nil {
				return err
			}
			devices, err := manager.ListDevices(cmd.Context())
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Println("No devices attached")
				return nil
			}
			for _, d := range devices {
				if d.Model != "" {
					fmt.Printf("%-28s %-12s %-4s %s\n", d.ID, d.Status, d.ConnectionType, d.Model)
				} else {
					fmt.Printf("%-28s %-12s %s\n", d.ID, d.Status, d.ConnectionType)
				}
			}
			return nil
		},
	}

	devicesCmd.AddCommand(newConnectCmd())
	devicesCmd.AddCommand(newDisconnectCmd())
	devicesCmd.AddCommand(newTCPIPCmd())
	return devicesCmd
}

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <host[:port]>",
		Short: "Connect to a device over TCP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, lang, err := newManager()
			if err != nil {
				return err
			}
			if err := manager.Connect(cmd.Context(), args[0]); err != nil {
				fmt.Printf("%s: %s\n", i18n.Get("connection_failed", lang), args[0])
				return err
			}
			fmt.Printf("%s: %s\n", i18n.Get("connection_successful", lang), args[0])
			return nil
		},
	}
}

func newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <host[:port]>",
		Short: "Disconnect a TCP device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := newManager()
			if err != nil {
				return err
			}
			return manager.Disconnect(cmd.Context(), args[0])
		},
	}
}

func newTCPIPCmd() *cobra.Command {
	var serial string
	tcpipCmd := &cobra.Command{
		Use:   "tcpip [port]",
		Short: "Switch a USB-attached device to TCP mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, _, err := newManager()
			if err != nil {
				return err
			}
			port := 5555
			if len(args) == 1 {
				if _, err := fmt.Sscanf(args[0], "%d", &port); err != nil {
					return fmt.Errorf("invalid port %q", args[0])
				}
			}
			return manager.EnableTCPIP(cmd.Context(), serial, port)
		},
	}
	tcpipCmd.Flags().StringVarP(&serial, "serial", "s", "", "device serial when several are attached")
	return tcpipCmd
}

func newManager() (*adb.Manager, i18n.Language, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	lang := i18n.ParseLanguage(cfg.Agent.Lang)
	return adb.NewManager(cfg.Device, cfg.Timing, observability.GetLogger()), lang, nil
}
