package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

type closingConnector struct {
	mockConnector
	closed int
}

func (c *closingConnector) Close() error {
	c.closed++
	return nil
}

type mockApprover struct {
	approved bool
	err      error
	calls    int
	prompt   string
}

func (m *mockApprover) RequestApproval(_ context.Context, prompt string) (bool, error) {
	m.calls++
	m.prompt = prompt
	return m.approved, m.err
}

type mockLogger struct {
	mu     sync.Mutex
	lines  []string
	stages []string
}

func (m *mockLogger) record(prefix, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, prefix+fmt.Sprintf(format, args...))
}

func (m *mockLogger) Verbose(format string, args ...interface{}) { m.record("[VERBOSE] ", format, args...) }
func (m *mockLogger) Info(format string, args ...interface{})    { m.record("", format, args...) }
func (m *mockLogger) Error(format string, args ...interface{})   { m.record("[ERROR] ", format, args...) }

func (m *mockLogger) Stage(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, title)
}

func (m *mockLogger) contains(s string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines {
		if strings.Contains(l, s) {
			return true
		}
	}
	return false
}

// fakeStage is a scripted sanitize.Stage that records its invocations.
type fakeStage struct {
	name     string
	ready    bool
	readyErr error
	result   sanitize.StageResult
	runErr   error
	runs     *[]string
	onRun    func()
}

func (f *fakeStage) Name() string        { return f.name }
func (f *fakeStage) Description() string { return "Running " + f.name }

func (f *fakeStage) Ready(context.Context) (bool, error) { return f.ready, f.readyErr }

func (f *fakeStage) Run(context.Context) (sanitize.StageResult, error) {
	if f.runs != nil {
		*f.runs = append(*f.runs, f.name)
	}
	if f.onRun != nil {
		f.onRun()
	}
	return f.result, f.runErr
}

// staticFactory returns a StageFactory serving stages and counting calls.
func staticFactory(stages []sanitize.Stage, calls *int, cleaned *bool) StageFactory {
	return func(context.Context) ([]sanitize.Stage, func(), error) {
		*calls++
		return stages, func() { *cleaned = true }, nil
	}
}
