package evidence

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
)

// StepLogFilename is the step journal inside the reports directory.
const StepLogFilename = "steps.jsonl"

// StepInfo identifies a reportable step.
type StepInfo struct {
	Name     string
	Feature  string
	TestName string
}

// StepReporter runs fn as a labeled, attributable unit of a scenario.
// It must return fn's error unchanged.
type StepReporter interface {
	Step(ctx context.Context, info StepInfo, fn func(ctx context.Context) error) error
}

// LogReporter reports steps as log lines.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter returns a reporter writing to logger.
func NewLogReporter(logger *log.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Step logs the start and outcome of fn.
func (r *LogReporter) Step(ctx context.Context, info StepInfo, fn func(ctx context.Context) error) error {
	start := time.Now()
	r.logger.Debug("step started", "step", info.Name, "test", info.TestName)
	err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Error("step failed", "step", info.Name, "test", info.TestName, "elapsed", elapsed, "err", err)
		return err
	}
	r.logger.Debug("step passed", "step", info.Name, "test", info.TestName, "elapsed", elapsed)
	return nil
}

// TestingReporter reports steps through a test's log so they show up in
// `go test -v` output next to the scenario.
type TestingReporter struct {
	tb testing.TB
}

// NewTestingReporter wraps tb.
func NewTestingReporter(tb testing.TB) *TestingReporter {
	return &TestingReporter{tb: tb}
}

// Step runs fn and logs its outcome with tb.Logf.
func (r *TestingReporter) Step(ctx context.Context, info StepInfo, fn func(ctx context.Context) error) error {
	r.tb.Helper()
	start := time.Now()
	err := fn(ctx)
	if err != nil {
		r.tb.Logf("[STEP] %s FAILED after %v: %v", info.Name, time.Since(start), err)
		return err
	}
	r.tb.Logf("[STEP] %s passed in %v", info.Name, time.Since(start))
	return nil
}

// StepEntry is one line of the step journal.
type StepEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Feature    string    `json:"feature,omitempty"`
	Test       string    `json:"test,omitempty"`
	Step       string    `json:"step"`
	Status     string    `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Step journal statuses.
const (
	StepPassed = "passed"
	StepFailed = "failed"
)

// StepLog appends step entries to a JSONL file. Parallel scenarios may
// share one StepLog.
type StepLog struct {
	path string
	mu   sync.Mutex
	file *os.File
}

// OpenStepLog opens (or creates) the journal at path for appending.
func OpenStepLog(path string) (*StepLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating step log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening step log: %w", err)
	}
	return &StepLog{path: path, file: f}, nil
}

// Path returns the journal location.
func (l *StepLog) Path() string { return l.path }

// Append writes entry as one JSON line.
func (l *StepLog) Append(entry StepEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling step entry: %w", err)
	}
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing step entry: %w", err)
	}
	return nil
}

// Close closes the journal file.
func (l *StepLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// ReadStepLog reads every well-formed entry of a journal. A missing file
// yields no entries.
func ReadStepLog(path string) ([]StepEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading step log: %w", err)
	}
	defer f.Close()

	var entries []StepEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e StepEntry
		if err := json.Unmarshal(line, &e); err != nil {
			continue // torn write from an interrupted run
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return entries, fmt.Errorf("scanning step log: %w", err)
	}
	return entries, nil
}

// Journal is a StepReporter that records every step in a StepLog and then
// defers to an inner reporter. Journal write errors never replace the
// step's own outcome.
type Journal struct {
	inner  StepReporter
	log    *StepLog
	logger *log.Logger
	redact func(string) string
}

// NewJournal wraps inner so its steps are also written to sl.
func NewJournal(inner StepReporter, sl *StepLog, logger *log.Logger) *Journal {
	return &Journal{inner: inner, log: sl, logger: logger}
}

// WithRedact scrubs journaled error text with fn. Errors returned to the
// caller are left untouched.
func (j *Journal) WithRedact(fn func(string) string) *Journal {
	j.redact = fn
	return j
}

// Step runs fn through the inner reporter and journals the outcome.
func (j *Journal) Step(ctx context.Context, info StepInfo, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := j.inner.Step(ctx, info, fn)

	entry := StepEntry{
		Timestamp:  start.UTC(),
		Feature:    info.Feature,
		Test:       info.TestName,
		Step:       info.Name,
		Status:     StepPassed,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = StepFailed
		entry.Error = err.Error()
		if j.redact != nil {
			entry.Error = j.redact(entry.Error)
		}
	}
	if werr := j.log.Append(entry); werr != nil && j.logger != nil {
		j.logger.Warn("step journal write failed", "err", werr)
	}
	return err
}
