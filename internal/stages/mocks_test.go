package stages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgsanitize/internal/wordpress"
)

// recordingLogger captures log lines for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	infos   []string
	errors  []string
	verbose []string
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) infoContaining(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.infos {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// prefixHasher marks plaintext so tests can tell hashes from input.
type prefixHasher struct {
	err error
}

func (h prefixHasher) Hash(password string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + password, nil
}

// mockFlusher records Flush calls.
type mockFlusher struct {
	calls int
	keys  int64
	err   error
}

func (f *mockFlusher) Flush(ctx context.Context) (int64, error) {
	f.calls++
	return f.keys, f.err
}

var errBoom = errors.New("boom")

func testSchema(t *testing.T) wordpress.Schema {
	t.Helper()
	s, err := wordpress.NewSchema("wp_")
	require.NoError(t, err)
	return s
}
