package logging

import (
	"sync"

	"tasklist/internal/errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Operation identifies one queued mutation for error reporting
type Operation struct {
	Name   string
	ID     string
	TaskID int64
}

// NewOperation names a mutation and gives it a fresh correlation id.
// taskID is zero for operations not tied to a single task.
func NewOperation(name string, taskID int64) Operation {
	return Operation{
		Name:   name,
		ID:     uuid.NewString(),
		TaskID: taskID,
	}
}

// ErrorSink receives failures of fire-and-forget operations.
// Implementations must be safe for concurrent use.
type ErrorSink interface {
	Report(op Operation, err error)
}

// SinkFunc adapts a function to ErrorSink
type SinkFunc func(op Operation, err error)

// Report calls f
func (f SinkFunc) Report(op Operation, err error) {
	f(op, err)
}

// LogSink writes every reported failure to a logrus logger. User errors
// are logged at warn, system errors at error.
type LogSink struct {
	entry *logrus.Entry
}

// NewLogSink creates a sink logging through entry. A nil entry uses Base().
func NewLogSink(entry *logrus.Entry) *LogSink {
	if entry == nil {
		entry = Base()
	}
	return &LogSink{entry: entry}
}

// Report logs the failure with its operation fields
func (s *LogSink) Report(op Operation, err error) {
	if err == nil {
		return
	}
	entry := WithOperation(s.entry, op).
		WithField("error_code", errors.GetErrorCode(err)).
		WithError(err)

	if errors.ShouldLogError(err) {
		entry.Error("operation failed")
		return
	}
	entry.Warn("operation rejected")
}

// Failure is one reported error
type Failure struct {
	Op  Operation
	Err error
}

// CollectingSink records reported failures in order
type CollectingSink struct {
	mu       sync.Mutex
	failures []Failure
}

// NewCollectingSink creates an empty collecting sink
func NewCollectingSink() *CollectingSink {
	return &CollectingSink{}
}

// Report records the failure
func (s *CollectingSink) Report(op Operation, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, Failure{Op: op, Err: err})
}

// Failures returns a copy of everything reported so far
func (s *CollectingSink) Failures() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Failure, len(s.failures))
	copy(out, s.failures)
	return out
}

// Errors returns the reported errors in order
func (s *CollectingSink) Errors() []error {
	failures := s.Failures()
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f.Err
	}
	return errs
}

// Drain returns the reported failures and forgets them
func (s *CollectingSink) Drain() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.failures
	s.failures = nil
	return out
}

// Len returns the number of recorded failures
func (s *CollectingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.failures)
}

// MultiSink reports to every sink in order
type MultiSink []ErrorSink

// Report forwards to every non-nil sink
func (m MultiSink) Report(op Operation, err error) {
	for _, sink := range m {
		if sink != nil {
			sink.Report(op, err)
		}
	}
}
