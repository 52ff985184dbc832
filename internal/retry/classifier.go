package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// SQLSTATE codes that end a connection attempt for good.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeInvalidAuthorization = "28000"
	pgCodeInvalidPassword      = "28P01"
	pgCodeInvalidCatalogName   = "3D000"
)

// SQLSTATE codes worth another attempt while establishing a connection.
const (
	pgCodeTooManyConnections = "53300"
	pgCodeAdminShutdown      = "57P01"
	pgCodeCrashShutdown      = "57P02"
	pgCodeCannotConnectNow   = "57P03"
)

// transientPatterns match driver messages that carry no SQLSTATE.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"server closed the connection",
	"unexpected eof",
	"the database system is starting up",
}

// ConnectClassifier implements sanitize.ErrorClassifier for connection
// establishment against PostgreSQL.
type ConnectClassifier struct{}

// NewConnectClassifier creates a new connection error classifier.
func NewConnectClassifier() *ConnectClassifier {
	return &ConnectClassifier{}
}

// IsTransient reports whether connecting again may succeed.
func (c *ConnectClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, sanitize.ErrInvalidConfig) || errors.Is(err, sanitize.ErrUnsupportedAuthMethod) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientCode(pgErr.Code)
	}

	if isTransientNetError(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isTransientCode(code string) bool {
	switch code {
	case pgCodeInvalidAuthorization, pgCodeInvalidPassword, pgCodeInvalidCatalogName:
		return false
	case pgCodeTooManyConnections, pgCodeAdminShutdown, pgCodeCrashShutdown, pgCodeCannotConnectNow:
		return true
	}
	// Class 08 - Connection Exception
	return strings.HasPrefix(code, "08")
}

func isTransientNetError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		return errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ENETUNREACH) ||
			errors.Is(opErr.Err, syscall.EHOSTUNREACH)
	}
	return false
}

var _ sanitize.ErrorClassifier = (*ConnectClassifier)(nil)
