package report

import (
	"fmt"
	"os"
	"path/filepath"

	"equitydesk/pkg/errors"
)

// Writer persists the final markdown report to a fixed path
type Writer struct {
	path string
}

// NewWriter creates a writer for path; an empty path defaults to report.md
func NewWriter(path string) *Writer {
	if path == "" {
		path = "report.md"
	}
	return &Writer{path: path}
}

// Path returns the report location
func (w *Writer) Path() string {
	return w.path
}

// Write replaces the report atomically so readers never see a partial file
func (w *Writer) Write(markdown string) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create report directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.md")
	if err != nil {
		return errors.Wrap(err, "create temp report")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(markdown); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp report")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp report")
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return errors.Wrapf(err, "move report into %s", w.path)
	}
	return nil
}

// Read returns the current report, or "" when none was written yet
func (w *Writer) Read() (string, error) {
	data, err := os.ReadFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "read report %s", w.path)
	}
	return string(data), nil
}

// FailureMarkdown is shown in place of a report when the run failed
func FailureMarkdown(errorType, message string) string {
	return fmt.Sprintf(
		"## Run Failed\n\n**Error Type:** `%s`\n\n**Error Message:** `%s`\n\nCheck inputs and provider configuration, then retry.",
		errorType, CompactError(message),
	)
}
