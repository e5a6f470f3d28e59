// Package device defines the contract every device backend must satisfy.
// The agent owns exactly one Backend per session; backends are constructed
// from configuration and shared with nothing else.
package device

import (
	"context"
	"fmt"
	"time"
)

// Screenshot is a captured device screen.
type Screenshot struct {
	// Base64 holds the PNG image, standard base64 encoded.
	Base64 string
	Width  int
	Height int
	// Sensitive is set when the device refused the capture (secure surface)
	// and a fallback image was substituted.
	Sensitive bool
}

// Info describes a connected device.
type Info struct {
	ID             string
	Status         string
	ConnectionType string
	Model          string
	AndroidVersion string
}

// Backend is the narrow device contract the action dispatcher and the agent
// consume. Every call is bounded by the context; transport failures and
// timeouts surface as *OpError.
type Backend interface {
	CaptureScreen(ctx context.Context) (Screenshot, error)
	CurrentApp(ctx context.Context) (string, error)

	Tap(ctx context.Context, x, y int) error
	DoubleTap(ctx context.Context, x, y int) error
	LongPress(ctx context.Context, x, y int, duration time.Duration) error
	Swipe(ctx context.Context, x1, y1, x2, y2 int) error
	Back(ctx context.Context) error
	Home(ctx context.Context) error

	// LaunchApp reports false when the app name is not recognized.
	LaunchApp(ctx context.Context, name string) (bool, error)

	// Text-input primitives for the Type choreography.
	// SetAutomationKeyboard returns the previously active input method.
	SetAutomationKeyboard(ctx context.Context) (string, error)
	ClearText(ctx context.Context) error
	TypeText(ctx context.Context, text string) error
	RestoreKeyboard(ctx context.Context, ime string) error
}

// OpError is the single error kind device backends report upward. The
// dispatcher converts it into a failure outcome; it never crosses the
// engine boundary raw.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("device %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
