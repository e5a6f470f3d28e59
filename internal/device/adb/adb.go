// Package adb implements the device.Backend contract by shelling out to the
// Android Debug Bridge. Every primitive is bounded by a configured timeout
// and followed by a settling delay so the device UI can catch up before the
// next screenshot.
package adb

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phonepilot/phonepilot/internal/config"
	"github.com/phonepilot/phonepilot/internal/device"
)

// Backend drives a single Android device over adb.
type Backend struct {
	adbPath           string
	deviceID          string
	opTimeout         time.Duration
	screenshotTimeout time.Duration
	delays            config.DeviceTimingConfig
	logger            *zap.Logger
}

var _ device.Backend = (*Backend)(nil)

// New creates an adb backend bound to the configured device.
func New(cfg config.DeviceConfig, timing config.TimingConfig, logger *zap.Logger) *Backend {
	adbPath := cfg.ADBPath
	if adbPath == "" {
		adbPath = "adb"
	}
	return &Backend{
		adbPath:           adbPath,
		deviceID:          cfg.ID,
		opTimeout:         cfg.OperationTimeout,
		screenshotTimeout: cfg.ScreenshotTimeout,
		delays:            timing.Device,
		logger:            logger.Named("adb"),
	}
}

// prefix returns the adb argument prefix selecting the bound device.
func (b *Backend) prefix() []string {
	if b.deviceID == "" {
		return nil
	}
	return []string{"-s", b.deviceID}
}

// run executes an adb command and returns its combined output. Timeouts and
// process failures are reported as a single *device.OpError kind.
func (b *Backend) run(ctx context.Context, op string, timeout time.Duration, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.adbPath, append(b.prefix(), args...)...)
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", &device.OpError{Op: op, Err: fmt.Errorf("timeout after %s", timeout)}
	}
	if err != nil {
		return string(out), &device.OpError{Op: op, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))}
	}
	return string(out), nil
}

// settle pauses for the given post-operation delay, honoring cancellation.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// CurrentApp returns the human-readable name of the foreground app, or
// "System Home" when the focused window matches no known package.
func (b *Backend) CurrentApp(ctx context.Context) (string, error) {
	out, err := b.run(ctx, "current_app", b.opTimeout, "shell", "dumpsys", "window")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", &device.OpError{Op: "current_app", Err: fmt.Errorf("no output from dumpsys window")}
	}
	return foregroundApp(out), nil
}

func (b *Backend) Tap(ctx context.Context, x, y int) error {
	b.logger.Debug("tap", zap.Int("x", x), zap.Int("y", y))
	if _, err := b.run(ctx, "tap", b.opTimeout,
		"shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y)); err != nil {
		return err
	}
	return settle(ctx, b.delays.TapDelay)
}

func (b *Backend) DoubleTap(ctx context.Context, x, y int) error {
	b.logger.Debug("double tap", zap.Int("x", x), zap.Int("y", y))
	for i := 0; i < 2; i++ {
		if _, err := b.run(ctx, "double_tap", b.opTimeout,
			"shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y)); err != nil {
			return err
		}
		if i == 0 {
			if err := settle(ctx, b.delays.DoubleTapInterval); err != nil {
				return err
			}
		}
	}
	return settle(ctx, b.delays.DoubleTapDelay)
}

// LongPress is a zero-distance swipe held for the given duration.
func (b *Backend) LongPress(ctx context.Context, x, y int, duration time.Duration) error {
	if duration <= 0 {
		duration = b.delays.LongPressDuration
	}
	b.logger.Debug("long press", zap.Int("x", x), zap.Int("y", y), zap.Duration("duration", duration))
	xs, ys := strconv.Itoa(x), strconv.Itoa(y)
	if _, err := b.run(ctx, "long_press", b.opTimeout+duration,
		"shell", "input", "swipe", xs, ys, xs, ys, strconv.Itoa(int(duration.Milliseconds()))); err != nil {
		return err
	}
	return settle(ctx, b.delays.LongPressDelay)
}

func (b *Backend) Swipe(ctx context.Context, x1, y1, x2, y2 int) error {
	duration := swipeDuration(x1, y1, x2, y2)
	b.logger.Debug("swipe",
		zap.Int("x1", x1), zap.Int("y1", y1),
		zap.Int("x2", x2), zap.Int("y2", y2),
		zap.Duration("duration", duration))
	if _, err := b.run(ctx, "swipe", b.opTimeout+duration,
		"shell", "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2),
		strconv.Itoa(int(duration.Milliseconds()))); err != nil {
		return err
	}
	return settle(ctx, b.delays.SwipeDelay)
}

// swipeDuration scales the gesture time with the squared distance, clamped
// to the 1-2 second range the input shell command behaves well in.
func swipeDuration(x1, y1, x2, y2 int) time.Duration {
	dx, dy := x1-x2, y1-y2
	ms := (dx*dx + dy*dy) / 1000
	if ms < 1000 {
		ms = 1000
	} else if ms > 2000 {
		ms = 2000
	}
	return time.Duration(ms) * time.Millisecond
}

func (b *Backend) Back(ctx context.Context) error {
	if _, err := b.run(ctx, "back", b.opTimeout, "shell", "input", "keyevent", "4"); err != nil {
		return err
	}
	return settle(ctx, b.delays.BackDelay)
}

func (b *Backend) Home(ctx context.Context) error {
	if _, err := b.run(ctx, "home", b.opTimeout, "shell", "input", "keyevent", "KEYCODE_HOME"); err != nil {
		return err
	}
	return settle(ctx, b.delays.HomeDelay)
}

// LaunchApp starts an app by its human-readable name. Returns false when the
// name maps to no known package.
func (b *Backend) LaunchApp(ctx context.Context, name string) (bool, error) {
	pkg, ok := PackageFor(name)
	if !ok {
		return false, nil
	}
	b.logger.Debug("launch app", zap.String("app", name), zap.String("package", pkg))
	if _, err := b.run(ctx, "launch_app", b.opTimeout,
		"shell", "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1"); err != nil {
		return false, err
	}
	if err := settle(ctx, b.delays.LaunchDelay); err != nil {
		return false, err
	}
	return true, nil
}
