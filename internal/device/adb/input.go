package adb

import (
	"context"
	"encoding/base64"
	"strings"
)

// The ADBKeyboard IME accepts text over broadcast intents, which is the only
// reliable way to inject non-ASCII text through adb.
const (
	adbKeyboardIME     = "com.android.adbkeyboard/.AdbIME"
	adbKeyboardPackage = "com.android.adbkeyboard"
)

// SetAutomationKeyboard switches the device to the ADBKeyboard IME and
// returns the previously active input method so it can be restored later.
func (b *Backend) SetAutomationKeyboard(ctx context.Context) (string, error) {
	out, err := b.run(ctx, "set_keyboard", b.opTimeout,
		"shell", "settings", "get", "secure", "default_input_method")
	if err != nil {
		return "", err
	}
	previous := strings.TrimSpace(out)
	if previous == "null" {
		previous = ""
	}

	if _, err := b.run(ctx, "set_keyboard", b.opTimeout,
		"shell", "ime", "set", adbKeyboardIME); err != nil {
		return "", err
	}
	return previous, nil
}

// ClearText empties the focused text field via the ADBKeyboard broadcast.
func (b *Backend) ClearText(ctx context.Context) error {
	_, err := b.run(ctx, "clear_text", b.opTimeout,
		"shell", "am", "broadcast", "-a", "ADB_CLEAR_TEXT")
	return err
}

// TypeText injects text into the focused field. The payload travels base64
// encoded so shell quoting cannot mangle unicode or spaces.
func (b *Backend) TypeText(ctx context.Context, text string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	_, err := b.run(ctx, "type_text", b.opTimeout,
		"shell", "am", "broadcast", "-a", "ADB_INPUT_B64", "--es", "msg", encoded)
	return err
}

// RestoreKeyboard switches back to the input method captured before the
// automation keyboard took over. A blank ime is a no-op.
func (b *Backend) RestoreKeyboard(ctx context.Context, ime string) error {
	if ime == "" || ime == adbKeyboardIME {
		return nil
	}
	_, err := b.run(ctx, "restore_keyboard", b.opTimeout, "shell", "ime", "set", ime)
	return err
}

// HasAutomationKeyboard reports whether the ADBKeyboard IME is installed.
func (b *Backend) HasAutomationKeyboard(ctx context.Context) (bool, error) {
	out, err := b.run(ctx, "check_keyboard", b.opTimeout,
		"shell", "ime", "list", "-s", "-a")
	if err != nil {
		return false, err
	}
	return strings.Contains(out, adbKeyboardPackage), nil
}
