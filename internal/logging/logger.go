// Package logging provides the structured logger and the process-wide
// error sink that receives failures from the writer queue.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceName is attached to every log entry
const ServiceName = "tasklist"

// Logger is the process-wide logger. It writes to stderr so command
// output on stdout stays machine readable.
var Logger = New(os.Stderr, "info", "text")

// New builds a logger writing to out with the given level and format.
// Unknown levels fall back to info; any format other than json is text.
func New(out io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	if DebugEnabled() {
		lvl = logrus.DebugLevel
	}
	logger.SetLevel(lvl)

	return logger
}

// Init replaces the process-wide logger
func Init(level, format string) *logrus.Logger {
	Logger = New(os.Stderr, level, format)
	return Logger
}

// Base returns an entry on the process-wide logger carrying the service field
func Base() *logrus.Entry {
	return WithService(Logger)
}

// WithService returns an entry on logger carrying the service field
func WithService(logger *logrus.Logger) *logrus.Entry {
	return logger.WithField("service", ServiceName)
}

// WithOperation adds the operation fields to an entry
func WithOperation(entry *logrus.Entry, op Operation) *logrus.Entry {
	fields := logrus.Fields{
		"op":    op.Name,
		"op_id": op.ID,
	}
	if op.TaskID != 0 {
		fields["task_id"] = op.TaskID
	}
	return entry.WithFields(fields)
}
