package sanitize

import "context"

// Approver handles user interaction for the confirmation gate that precedes
// every destructive sanitization run.
//
// Implementations:
//   - ForcedApprover: Prints the warning and approves without reading input (--yes)
//   - InteractiveApprover: Prompts the user for a yes/no answer
type Approver interface {
	// RequestApproval asks for confirmation before sensitive data is destroyed.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - prompt: Question shown to the operator
	//
	// Returns:
	//   - bool: true if approved, false if declined
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, prompt string) (bool, error)
}
