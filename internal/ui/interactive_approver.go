package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

const warningBanner = "⚠️  WARNING: Sanitization permanently replaces and deletes personal data. It cannot be undone."

// InteractiveApprover implements the Approver interface for console-based
// confirmation. Only "y" or "yes" (any case) approves.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates a new InteractiveApprover reading from stdin.
func NewInteractiveApprover(verbose bool) sanitize.Approver {
	return &InteractiveApprover{verbose: verbose, input: os.Stdin, output: os.Stderr}
}

// RequestApproval prints the warning and the prompt and reads one line.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(a.output, "\n%s\n", warningBanner)
	if a.verbose {
		fmt.Fprintln(a.output, "[VERBOSE] Waiting for confirmation on stdin (pass --yes to skip)")
	}
	fmt.Fprintf(a.output, "%s [y/N]: ", prompt)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && !(err == io.EOF && input != "") {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if isYes(input) {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Answer '%s' is not yes. Nothing was changed.\n", input)
		return false, nil
	}
}

func isYes(answer string) bool {
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ sanitize.Approver = (*InteractiveApprover)(nil)
