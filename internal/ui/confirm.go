package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Confirm runs the confirmation gate. autoYes approves without consulting
// the approver.
func Confirm(ctx context.Context, approver sanitize.Approver, prompt string, autoYes bool) (bool, error) {
	if autoYes {
		return true, nil
	}
	if approver == nil {
		return false, nil
	}
	return approver.RequestApproval(ctx, prompt)
}

// IsInteractive reports whether a human can answer the prompt: stdin is a
// terminal and neither CI nor PGSANITIZE_NON_INTERACTIVE=1 is set.
func IsInteractive() bool {
	if os.Getenv("PGSANITIZE_NON_INTERACTIVE") == "1" {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// NewApprover picks the approver for a run: --yes approves (after an
// optional countdown), a terminal prompts, anything else declines.
func NewApprover(yes bool, countdown time.Duration, verbose bool) sanitize.Approver {
	switch {
	case yes:
		return NewForcedApprover(verbose, countdown)
	case IsInteractive():
		return NewInteractiveApprover(verbose)
	default:
		return &DecliningApprover{output: os.Stderr}
	}
}

// DecliningApprover declines without prompting. It is used when stdin is
// not a terminal and --yes was not given.
type DecliningApprover struct {
	output io.Writer
}

// RequestApproval always returns false.
func (a *DecliningApprover) RequestApproval(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintln(a.output, "✗ Not running in a terminal and --yes was not given. Nothing was changed.")
	return false, nil
}

var _ sanitize.Approver = (*DecliningApprover)(nil)
