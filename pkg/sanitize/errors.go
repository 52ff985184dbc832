package sanitize

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := svc.Sanitize(ctx, cfg)
//	if errors.Is(err, sanitize.ErrConfirmationDeclined) {
//	    // Nothing was touched
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfirmationDeclined indicates the operator declined (or could not be
	// asked for) confirmation. No mutation has happened.
	ErrConfirmationDeclined = errors.New("confirmation declined")

	// ErrPrerequisiteMissing indicates an optional stage's extension or tables
	// are absent. The stage is skipped, not failed.
	ErrPrerequisiteMissing = errors.New("stage prerequisite missing")

	// ErrRowWrite indicates a single record could not be written.
	// Accounts and content stages log it and continue.
	ErrRowWrite = errors.New("row write failed")

	// ErrBulkOperation indicates a batched update, delete or truncate failed.
	// It is fatal to the stage and halts the pipeline.
	ErrBulkOperation = errors.New("bulk operation failed")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrUnknownStage indicates a stage name that is not registered.
	ErrUnknownStage = errors.New("unknown stage")
)

// usageErrorPatterns match the messages cobra produces for command line misuse.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"required flag",
	"invalid argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrUnsupportedAuthMethod), errors.Is(err, ErrUnknownStage):
		return ExitConfigError
	case errors.Is(err, ErrConfirmationDeclined):
		return ExitConfirmationDeclined
	case errors.Is(err, ErrBulkOperation):
		return ExitBulkOperationFailed
	case errors.Is(err, ErrRowWrite):
		return ExitRowWritesFailed
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}
	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
