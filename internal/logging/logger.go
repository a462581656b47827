// Package logging builds the JSON logger used for job lifecycle records.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const VersionKey = "version"

// New returns a JSON logger writing to w. A nil writer discards.
func New(w io.Writer, debug bool) *logrus.Logger {
	if w == nil {
		w = io.Discard
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Open appends to the log file at path, creating its directory. An empty
// path yields a discarding logger. The returned cleanup closes the file.
func Open(path string, debug bool) (*logrus.Logger, func(), error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return New(io.Discard, debug), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return New(f, debug), func() { _ = f.Close() }, nil
}

// WithVersion stamps every entry with the build version.
func WithVersion(l *logrus.Logger, version string) logrus.FieldLogger {
	return l.WithField(VersionKey, version)
}
