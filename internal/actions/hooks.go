package actions

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phonepilot/phonepilot/internal/i18n"
)

// Interactor is the human-in-the-loop capability the dispatcher consults for
// sensitive operations and manual takeover. Both calls block until the human
// responds.
type Interactor interface {
	// Confirm asks the user to approve a sensitive operation.
	Confirm(message string) bool
	// Takeover yields control to the user until they signal completion.
	Takeover(message string)
}

// ConsoleInteractor prompts on a terminal. It is the default Interactor.
type ConsoleInteractor struct {
	in   *bufio.Reader
	out  io.Writer
	lang i18n.Language
}

// NewConsoleInteractor builds a console interactor on stdin/stdout.
func NewConsoleInteractor(lang i18n.Language) *ConsoleInteractor {
	return &ConsoleInteractor{
		in:   bufio.NewReader(os.Stdin),
		out:  os.Stdout,
		lang: lang,
	}
}

// NewConsoleInteractorWith builds a console interactor on explicit streams,
// for tests.
func NewConsoleInteractorWith(in io.Reader, out io.Writer, lang i18n.Language) *ConsoleInteractor {
	return &ConsoleInteractor{in: bufio.NewReader(in), out: out, lang: lang}
}

func (c *ConsoleInteractor) Confirm(message string) bool {
	fmt.Fprintf(c.out, "\n[%s] %s\n%s ", i18n.Get("confirmation_required", c.lang), message, i18n.Get("continue_prompt", c.lang))
	line, err := c.in.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (c *ConsoleInteractor) Takeover(message string) {
	if message == "" {
		message = i18n.Get("manual_operation_hint", c.lang)
	}
	fmt.Fprintf(c.out, "\n[%s] %s\n%s ", i18n.Get("manual_operation_required", c.lang), message, i18n.Get("press_enter_when_done", c.lang))
	_, _ = c.in.ReadString('\n')
}
