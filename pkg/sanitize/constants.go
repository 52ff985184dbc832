package sanitize

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess              = 0  // Sanitization completed successfully
	ExitGeneralError         = 1  // Unknown or unclassified error
	ExitUsageError           = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic                = 3  // Internal panic (unexpected crash)
	ExitConfigError          = 10 // Invalid configuration
	ExitConnectionError      = 11 // Failed to connect to database
	ExitConfirmationDeclined = 12 // Operator declined the confirmation gate
	ExitBulkOperationFailed  = 13 // A batched update/delete/truncate failed
	ExitRowWritesFailed      = 14 // Pipeline finished but some records could not be written
)

const (
	// DefaultBatchSize bounds the rows read or written per round-trip.
	DefaultBatchSize = 1000

	// DefaultProgressEvery is the number of accounts between progress lines.
	DefaultProgressEvery = 1000

	// DefaultTablePrefix is the table prefix of a stock WordPress install.
	DefaultTablePrefix = "wp_"

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultApplicationName is reported to PostgreSQL as application_name.
	DefaultApplicationName = "pgsanitize"

	// ConfirmationPrompt is the question asked before any destructive run.
	ConfirmationPrompt = "Are you sure you want to DELETE this sensitive data in the database?"

	// AccountTextMaxChars caps the generated account description.
	AccountTextMaxChars = 200

	// ContentTextMaxChars caps the generated comment body.
	ContentTextMaxChars = 400
)
