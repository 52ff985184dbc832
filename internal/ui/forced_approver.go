package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// ForcedApprover implements the Approver interface for --yes runs. It prints
// the warning, optionally counts down so the operator can still press
// Ctrl+C, and approves without reading input.
type ForcedApprover struct {
	verbose   bool
	countdown int
	output    io.Writer
	sleepFn   func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover. A zero countdown approves
// immediately.
func NewForcedApprover(verbose bool, countdown time.Duration) sanitize.Approver {
	return &ForcedApprover{
		verbose:   verbose,
		countdown: int(countdown.Seconds()),
		output:    os.Stderr,
		sleepFn:   time.Sleep,
	}
}

// RequestApproval prints the warning and approves after the countdown.
func (a *ForcedApprover) RequestApproval(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, warningBanner)
	fmt.Fprintln(a.output, prompt)
	if a.verbose {
		fmt.Fprintf(a.output, "[VERBOSE] Approval forced by --yes, countdown %ds\n", a.countdown)
	}

	for i := a.countdown; i > 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.output)
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rStarting in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(1 * time.Second)
		}
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	fmt.Fprintf(a.output, "\r✓ Confirmed by --yes. Proceeding...                              \n")
	return true, nil
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ sanitize.Approver = (*ForcedApprover)(nil)
