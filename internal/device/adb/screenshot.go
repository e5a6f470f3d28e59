package adb

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/phonepilot/phonepilot/internal/device"
)

// Fallback dimensions when the device refuses the capture and no real frame
// is available. Matches a common 1080p phone panel.
const (
	fallbackWidth  = 1080
	fallbackHeight = 2400
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// CaptureScreen grabs the current frame as a PNG via `screencap -p`. Secure
// surfaces (payment screens, password prompts) make screencap fail; those are
// reported as a Sensitive screenshot carrying a solid black frame so the
// model still receives an image of the right shape.
func (b *Backend) CaptureScreen(ctx context.Context) (device.Screenshot, error) {
	ctx, cancel := context.WithTimeout(ctx, b.screenshotTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, b.adbPath, append(b.prefix(), "exec-out", "screencap", "-p")...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	data, err := cmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		return device.Screenshot{}, &device.OpError{Op: "screenshot", Err: fmt.Errorf("timeout after %s", b.screenshotTimeout)}
	}
	if err != nil || !bytes.HasPrefix(data, pngMagic) {
		if secureSurfaceRefusal(stderr.String(), data) {
			b.logger.Warn("screencap refused by secure surface, substituting black frame",
				zap.Int("bytes", len(data)))
			return blackScreenshot()
		}
		if err != nil {
			return device.Screenshot{}, &device.OpError{Op: "screenshot", Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
		}
		return device.Screenshot{}, &device.OpError{Op: "screenshot", Err: fmt.Errorf("output is not a PNG (%d bytes)", len(data))}
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return device.Screenshot{}, &device.OpError{Op: "screenshot", Err: fmt.Errorf("decoding PNG header: %w", err)}
	}

	return device.Screenshot{
		Base64: base64.StdEncoding.EncodeToString(data),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// secureSurfaceRefusal recognizes the screencap failure modes produced by
// FLAG_SECURE windows.
func secureSurfaceRefusal(stderr string, data []byte) bool {
	combined := stderr + string(data)
	return strings.Contains(combined, "Status: -1") ||
		strings.Contains(combined, "Failed") ||
		len(bytes.TrimSpace(data)) == 0
}

// blackScreenshot builds the substitute frame for sensitive screens.
func blackScreenshot() (device.Screenshot, error) {
	img := image.NewRGBA(image.Rect(0, 0, fallbackWidth, fallbackHeight))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return device.Screenshot{}, &device.OpError{Op: "screenshot", Err: fmt.Errorf("encoding fallback frame: %w", err)}
	}
	return device.Screenshot{
		Base64:    base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:     fallbackWidth,
		Height:    fallbackHeight,
		Sensitive: true,
	}, nil
}
