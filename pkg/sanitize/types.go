package sanitize

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunConfig contains all parameters needed for a sanitization run.
type RunConfig struct {
	// DatabaseName is shown in the confirmation warning and the summary.
	DatabaseName string

	// Stages selects the stages to run, by name. Empty means every stage.
	Stages []string

	// AutoYes approves the confirmation gate without prompting.
	AutoYes bool

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the RunConfig has valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.DatabaseName == "" {
		errs = append(errs, fmt.Errorf("DatabaseName is required: %w", ErrInvalidConfig))
	}

	seen := make(map[string]bool, len(c.Stages))
	for _, name := range c.Stages {
		if name == "" {
			errs = append(errs, fmt.Errorf("stage name cannot be empty: %w", ErrInvalidConfig))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("stage %q selected twice: %w", name, ErrInvalidConfig))
		}
		seen[name] = true
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// Client certificate parameters (mTLS)
	SSLCert     string
	SSLKey      string
	SSLRootCert string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is used by AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// Account is an identity record. Only the fields the accounts stage reads
// are loaded.
type Account struct {
	ID          int64
	Login       string
	Email       string
	URL         string
	DisplayName string
}

// AccountUpdate carries the replacement values of one account.
// URL is written only when UpdateURL is set. Meta holds profile attributes
// by normalized key; only existing entries are rewritten.
type AccountUpdate struct {
	ID           int64
	Login        string
	Nicename     string
	Email        string
	DisplayName  string
	PasswordHash string
	URL          string
	UpdateURL    bool
	Meta         map[string]string
}

// ContentItem is a comment (or comment-like record).
type ContentItem struct {
	ID          int64
	Type        string
	Status      string
	AuthorName  string
	AuthorEmail string
	AuthorURL   string
	Body        string
}

// ContentUpdate carries the replacement author and body fields of one item.
// Identifier and moderation status are never part of an update.
type ContentUpdate struct {
	ID          int64
	AuthorName  string
	AuthorEmail string
	AuthorURL   string
	Body        string
}

// AttributeTable describes a generic key-value side table
// (owner, key, value) addressed by a surrogate row id.
type AttributeTable struct {
	Name        string
	IDColumn    string
	KeyColumn   string
	ValueColumn string
}

// ColumnTable describes a table whose sensitive data lives in named columns.
type ColumnTable struct {
	Name     string
	IDColumn string
}

// StageStatus is the outcome of one stage.
type StageStatus int

const (
	StageCompleted StageStatus = iota
	StageSkipped
	StageFailed
	StageNotRun
)

// String returns a human-readable stage status.
func (s StageStatus) String() string {
	switch s {
	case StageCompleted:
		return "completed"
	case StageSkipped:
		return "skipped"
	case StageFailed:
		return "failed"
	case StageNotRun:
		return "not run"
	default:
		return fmt.Sprintf("StageStatus(%d)", int(s))
	}
}

// StageResult holds the counters reported by one stage.
type StageResult struct {
	Name      string
	Status    StageStatus
	Processed int64 // records inspected
	Updated   int64 // records or rows rewritten
	Deleted   int64 // rows deleted
	Truncated int64 // tables truncated
	Preserved int64 // records intentionally left untouched
	Failed    int64 // records that could not be written
	Duration  time.Duration
	Err       error
}

// Summary is the outcome of a sanitization run.
type Summary struct {
	RunID    uuid.UUID
	Database string
	Stages   []StageResult
}

// TotalFailed returns the number of records that could not be written across all stages.
func (s Summary) TotalFailed() int64 {
	var n int64
	for _, st := range s.Stages {
		n += st.Failed
	}
	return n
}

// Stage returns the result for the named stage.
func (s Summary) Stage(name string) (StageResult, bool) {
	for _, st := range s.Stages {
		if st.Name == name {
			return st, true
		}
	}
	return StageResult{}, false
}
