package actions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/phonepilot/phonepilot/internal/config"
	"github.com/phonepilot/phonepilot/internal/device"
)

// Outcome is the result of dispatching one record. Device failures are
// absorbed into a failed outcome; they never propagate as errors, which is
// what keeps the step loop alive after a single bad action.
type Outcome struct {
	Succeeded            bool
	ShouldFinish         bool
	Message              string
	RequiresConfirmation bool
}

// Dispatcher executes action records against a device backend.
type Dispatcher struct {
	backend    device.Backend
	interactor Interactor
	timing     config.ActionTimingConfig
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher bound to one device backend and one
// interaction strategy.
func NewDispatcher(backend device.Backend, interactor Interactor, timing config.ActionTimingConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		backend:    backend,
		interactor: interactor,
		timing:     timing,
		logger:     logger.Named("dispatcher"),
	}
}

// convertCoord maps a normalized [0,1000] coordinate onto a screen dimension.
// Truncation toward zero is deliberate so conversions are deterministic.
func convertCoord(normalized float64, dim int) int {
	return int(normalized / 1000.0 * float64(dim))
}

// Dispatch performs the record's device effect and reports the outcome.
// width and height are the current screen dimensions in pixels.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *Record, width, height int) Outcome {
	if rec.Kind == KindFinish {
		msg := rec.Message()
		if msg == "" {
			msg = "Task completed"
		}
		return Outcome{Succeeded: true, ShouldFinish: true, Message: msg}
	}

	d.logger.Debug("dispatching action", zap.String("action", rec.Action))

	switch rec.Action {
	case "Launch":
		return d.launch(ctx, rec)
	case "Tap", "Double Tap", "Double_Tap", "Long Press", "Long_Press":
		return d.pointer(ctx, rec, width, height)
	case "Swipe":
		return d.swipe(ctx, rec, width, height)
	case "Type", "Type_Name":
		return d.typeText(ctx, rec)
	case "Back":
		return d.outcomeFrom(d.backend.Back(ctx))
	case "Home":
		return d.outcomeFrom(d.backend.Home(ctx))
	case "Wait":
		return d.wait(ctx, rec)
	case "Take_over":
		msg := rec.Message()
		d.interactor.Takeover(msg)
		return Outcome{Succeeded: true}
	case "Interact":
		return Outcome{Succeeded: true, Message: "User interaction required"}
	case "Note", "Call_API":
		return Outcome{Succeeded: true}
	default:
		return Outcome{Message: fmt.Sprintf("Unknown action: %s", rec.Action)}
	}
}

func (d *Dispatcher) launch(ctx context.Context, rec *Record) Outcome {
	app, _ := rec.StringField("app")
	if app == "" {
		return Outcome{Message: "Launch requires an app name"}
	}
	ok, err := d.backend.LaunchApp(ctx, app)
	if err != nil {
		return Outcome{Message: err.Error()}
	}
	if !ok {
		return Outcome{Message: fmt.Sprintf("Unknown app: %s", app)}
	}
	return Outcome{Succeeded: true}
}

// pointer handles Tap, Double Tap, and Long Press. A message field marks the
// operation sensitive: the user must confirm before the device is touched,
// and a decline aborts the whole task.
func (d *Dispatcher) pointer(ctx context.Context, rec *Record, width, height int) Outcome {
	nx, ny, ok := rec.Coords("element")
	if !ok {
		return Outcome{Message: fmt.Sprintf("%s requires a 2-element coordinate pair", rec.Action)}
	}
	x := convertCoord(nx, width)
	y := convertCoord(ny, height)

	requiresConfirmation := false
	if msg, present := rec.StringField("message"); present && msg != "" {
		requiresConfirmation = true
		if !d.interactor.Confirm(msg) {
			d.logger.Info("sensitive operation declined", zap.String("action", rec.Action))
			return Outcome{
				ShouldFinish:         true,
				Message:              "User cancelled sensitive operation",
				RequiresConfirmation: true,
			}
		}
	}

	var err error
	switch rec.Action {
	case "Tap":
		err = d.backend.Tap(ctx, x, y)
	case "Double Tap", "Double_Tap":
		err = d.backend.DoubleTap(ctx, x, y)
	default:
		err = d.backend.LongPress(ctx, x, y, 0)
	}
	out := d.outcomeFrom(err)
	out.RequiresConfirmation = requiresConfirmation
	return out
}

func (d *Dispatcher) swipe(ctx context.Context, rec *Record, width, height int) Outcome {
	sx, sy, okS := rec.Coords("start")
	ex, ey, okE := rec.Coords("end")
	if !okS || !okE {
		return Outcome{Message: "Swipe requires start and end coordinate pairs"}
	}
	return d.outcomeFrom(d.backend.Swipe(ctx,
		convertCoord(sx, width), convertCoord(sy, height),
		convertCoord(ex, width), convertCoord(ey, height)))
}

// typeText runs the text-input choreography: switch to the automation
// keyboard, clear the field, inject the text, restore the original keyboard.
// Each sub-step is followed by its configured settling delay, and the
// original keyboard is restored even when a middle step fails.
func (d *Dispatcher) typeText(ctx context.Context, rec *Record) Outcome {
	text, _ := rec.StringField("text")

	previous, err := d.backend.SetAutomationKeyboard(ctx)
	if err != nil {
		return Outcome{Message: err.Error()}
	}
	if err := d.pause(ctx, d.timing.KeyboardSwitchDelay); err != nil {
		return Outcome{Message: err.Error()}
	}

	restore := func() {
		if err := d.backend.RestoreKeyboard(ctx, previous); err != nil {
			d.logger.Warn("failed to restore keyboard", zap.Error(err))
		}
	}

	if err := d.backend.ClearText(ctx); err != nil {
		restore()
		return Outcome{Message: err.Error()}
	}
	if err := d.pause(ctx, d.timing.TextClearDelay); err != nil {
		restore()
		return Outcome{Message: err.Error()}
	}
	if err := d.backend.TypeText(ctx, text); err != nil {
		restore()
		return Outcome{Message: err.Error()}
	}
	if err := d.pause(ctx, d.timing.TextInputDelay); err != nil {
		restore()
		return Outcome{Message: err.Error()}
	}

	if err := d.backend.RestoreKeyboard(ctx, previous); err != nil {
		return Outcome{Message: err.Error()}
	}
	if err := d.pause(ctx, d.timing.KeyboardRestoreDelay); err != nil {
		return Outcome{Message: err.Error()}
	}
	return Outcome{Succeeded: true}
}

func (d *Dispatcher) wait(ctx context.Context, rec *Record) Outcome {
	seconds := waitSeconds(rec.Fields["duration"])
	d.logger.Debug("waiting", zap.Float64("seconds", seconds))
	if err := d.pause(ctx, time.Duration(seconds*float64(time.Second))); err != nil {
		return Outcome{Message: err.Error()}
	}
	return Outcome{Succeeded: true}
}

// waitSeconds parses a Wait duration, conventionally free text such as
// "2 seconds". Malformed durations fall back to 1.0 rather than failing.
func waitSeconds(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case float64:
		return t
	case string:
		s := strings.ReplaceAll(t, "seconds", "")
		s = strings.ReplaceAll(s, "second", "")
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 1.0
}

func (d *Dispatcher) pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// outcomeFrom converts a device error into a failed outcome.
func (d *Dispatcher) outcomeFrom(err error) Outcome {
	if err != nil {
		d.logger.Warn("device operation failed", zap.Error(err))
		return Outcome{Message: err.Error()}
	}
	return Outcome{Succeeded: true}
}
