package adb

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageFor(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"wechat", "com.tencent.mm", true},
		{"WeChat", "com.tencent.mm", true},
		{"  Settings ", "com.android.settings", true},
		{"微信", "com.tencent.mm", true},
		{"no-such-app", "", false},
	}
	for _, tt := range tests {
		pkg, ok := PackageFor(tt.name)
		assert.Equal(t, tt.ok, ok, "lookup %q", tt.name)
		assert.Equal(t, tt.want, pkg, "lookup %q", tt.name)
	}
}

func TestForegroundApp(t *testing.T) {
	dump := `  mGlobalConfiguration={1.0 460mcc?mnc}
  mCurrentFocus=Window{a1b2c3 u0 com.tencent.mm/com.tencent.mm.ui.LauncherUI}
  mFocusedApp=ActivityRecord{d4e5f6 u0 com.tencent.mm/.ui.LauncherUI t42}`
	assert.Equal(t, "wechat", foregroundApp(dump))

	launcher := `  mCurrentFocus=Window{x u0 com.miui.home/com.miui.home.launcher.Launcher}`
	assert.Equal(t, "System Home", foregroundApp(launcher))

	assert.Equal(t, "System Home", foregroundApp("no focus lines at all"))
}

func TestParseDeviceList(t *testing.T) {
	out := `List of devices attached
emulator-5554          device product:sdk_gphone64 model:sdk_gphone64_x86_64 device:emu64x
192.168.1.50:5555      device product:lineage model:Pixel_7 device:panther
R58M123ABC             unauthorized usb:1-4

`
	devices := parseDeviceList(out)
	require.Len(t, devices, 3)

	assert.Equal(t, "emulator-5554", devices[0].ID)
	assert.Equal(t, "device", devices[0].Status)
	assert.Equal(t, "usb", devices[0].ConnectionType)
	assert.Equal(t, "sdk_gphone64_x86_64", devices[0].Model)

	assert.Equal(t, "192.168.1.50:5555", devices[1].ID)
	assert.Equal(t, "tcp", devices[1].ConnectionType)
	assert.Equal(t, "Pixel_7", devices[1].Model)

	assert.Equal(t, "R58M123ABC", devices[2].ID)
	assert.Equal(t, "unauthorized", devices[2].Status)
}

func TestParseDeviceListEmpty(t *testing.T) {
	assert.Empty(t, parseDeviceList("List of devices attached\n\n"))
}

func TestSwipeDuration(t *testing.T) {
	// Short gestures clamp to the floor.
	assert.Equal(t, time.Second, swipeDuration(100, 100, 150, 150))
	// Full-screen flings clamp to the ceiling.
	assert.Equal(t, 2*time.Second, swipeDuration(0, 0, 1080, 2400))
	// Mid-range scales with squared distance: 1200^2/1000 = 1440ms.
	assert.Equal(t, 1440*time.Millisecond, swipeDuration(0, 600, 0, 1800))
}

func TestSecureSurfaceRefusal(t *testing.T) {
	assert.True(t, secureSurfaceRefusal("Status: -1", nil))
	assert.True(t, secureSurfaceRefusal("", []byte("Failed to take screenshot")))
	assert.True(t, secureSurfaceRefusal("", []byte("  \n")))
	assert.False(t, secureSurfaceRefusal("", []byte("\x89PNG\r\n\x1a\nrest")))
}

func TestBlackScreenshot(t *testing.T) {
	shot, err := blackScreenshot()
	require.NoError(t, err)
	assert.True(t, shot.Sensitive)
	assert.Equal(t, fallbackWidth, shot.Width)
	assert.Equal(t, fallbackHeight, shot.Height)

	raw, err := base64.StdEncoding.DecodeString(shot.Base64)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, fallbackWidth, cfg.Width)
	assert.Equal(t, fallbackHeight, cfg.Height)
}
