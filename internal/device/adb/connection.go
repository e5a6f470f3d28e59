package adb

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/phonepilot/phonepilot/internal/config"
	"github.com/phonepilot/phonepilot/internal/device"
)

// Manager handles adb server lifecycle and device connections. It is
// separate from Backend because connection management happens before a
// device is selected.
type Manager struct {
	adbPath string
	timing  config.ConnectionTimingConfig
	logger  *zap.Logger
}

// NewManager creates a connection manager from device configuration.
func NewManager(cfg config.DeviceConfig, timing config.TimingConfig, logger *zap.Logger) *Manager {
	adbPath := cfg.ADBPath
	if adbPath == "" {
		adbPath = "adb"
	}
	return &Manager{
		adbPath: adbPath,
		timing:  timing.Connection,
		logger:  logger.Named("adb"),
	}
}

func (m *Manager) run(ctx context.Context, op string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, m.adbPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), &device.OpError{Op: op, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))}
	}
	return string(out), nil
}

// ListDevices returns the devices known to the local adb server.
func (m *Manager) ListDevices(ctx context.Context) ([]device.Info, error) {
	out, err := m.run(ctx, "list_devices", "devices", "-l")
	if err != nil {
		return nil, err
	}
	return parseDeviceList(out), nil
}

// parseDeviceList parses `adb devices -l` output.
func parseDeviceList(out string) []device.Info {
	var devices []device.Info
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") || strings.HasPrefix(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		info := device.Info{ID: fields[0], Status: fields[1]}
		if strings.Contains(info.ID, ":") {
			info.ConnectionType = "tcp"
		} else {
			info.ConnectionType = "usb"
		}
		for _, f := range fields[2:] {
			if v, ok := strings.CutPrefix(f, "model:"); ok {
				info.Model = v
			}
		}
		devices = append(devices, info)
	}
	return devices
}

// Connect establishes a TCP connection to a device address, retrying with
// exponential backoff until the configured elapsed budget runs out. A bare
// host gets the default adb port appended.
func (m *Manager) Connect(ctx context.Context, addr string) error {
	if !strings.Contains(addr, ":") {
		addr += ":5555"
	}

	attempt := func() error {
		out, err := m.run(ctx, "connect", "connect", addr)
		if err != nil {
			return err
		}
		if !strings.Contains(out, "connected to") {
			return &device.OpError{Op: "connect", Err: fmt.Errorf("adb refused %s: %s", addr, strings.TrimSpace(out))}
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.timing.RestartDelay
	policy.MaxElapsedTime = m.timing.MaxConnectElapsed

	notify := func(err error, wait time.Duration) {
		m.logger.Warn("connect attempt failed, retrying",
			zap.String("addr", addr),
			zap.Duration("retry_in", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(attempt, backoff.WithContext(policy, ctx), notify); err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	m.logger.Info("device connected", zap.String("addr", addr))
	return nil
}

// Disconnect drops a TCP device connection.
func (m *Manager) Disconnect(ctx context.Context, addr string) error {
	if !strings.Contains(addr, ":") {
		addr += ":5555"
	}
	_, err := m.run(ctx, "disconnect", "disconnect", addr)
	return err
}

// EnableTCPIP switches a USB-attached device to TCP mode on the given port.
func (m *Manager) EnableTCPIP(ctx context.Context, serial string, port int) error {
	args := []string{}
	if serial != "" {
		args = append(args, "-s", serial)
	}
	args = append(args, "tcpip", fmt.Sprint(port))
	_, err := m.run(ctx, "tcpip", args...)
	return err
}

// RestartServer bounces the local adb server. Some connection failures only
// clear after a full server restart.
func (m *Manager) RestartServer(ctx context.Context) error {
	m.logger.Info("restarting adb server")
	if _, err := m.run(ctx, "restart_server", "kill-server"); err != nil {
		return err
	}
	if err := settle(ctx, m.timing.ServerRestartDelay); err != nil {
		return err
	}
	_, err := m.run(ctx, "restart_server", "start-server")
	return err
}

// Version returns the adb client version string, used by diagnostics to
// verify the binary is reachable.
func (m *Manager) Version(ctx context.Context) (string, error) {
	out, err := m.run(ctx, "version", "version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line), nil
}
