// Package storage lays out job files on the local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName is returned for an empty job id or filename, or one that
// reduces to a directory reference.
var ErrInvalidName = errors.New("invalid file or job name")

// Manager stores each job under <base>/<jobID>/. Directories are created on
// demand.
type Manager struct {
	base string
}

// New returns a manager rooted at base, creating the directory.
func New(base string) (*Manager, error) {
	if base == "" {
		return nil, fmt.Errorf("%w: empty storage path", ErrInvalidName)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &Manager{base: abs}, nil
}

// Base is the absolute storage root.
func (m *Manager) Base() string {
	return m.base
}

// JobDir returns the job's directory, creating it.
func (m *Manager) JobDir(jobID string) (string, error) {
	id, err := cleanName(jobID)
	if err != nil || id != jobID {
		return "", fmt.Errorf("%w: job id %q", ErrInvalidName, jobID)
	}
	dir := filepath.Join(m.base, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create job directory: %w", err)
	}
	return dir, nil
}

// InputPath is where the uploaded file of a job lives.
func (m *Manager) InputPath(jobID, filename string) (string, error) {
	name, err := cleanName(filename)
	if err != nil {
		return "", err
	}
	dir, err := m.JobDir(jobID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// OutputPath is where the translated file of a job is written: the input
// name with suffix inserted before the extension.
func (m *Manager) OutputPath(jobID, filename, suffix string) (string, error) {
	name, err := cleanName(filename)
	if err != nil {
		return "", err
	}
	dir, err := m.JobDir(jobID)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	return filepath.Join(dir, strings.TrimSuffix(name, ext)+suffix+ext), nil
}

// SaveInput copies r to the job's input path and returns that path.
func (m *Manager) SaveInput(jobID, filename string, r io.Reader) (string, error) {
	dst, err := m.InputPath(jobID, filename)
	if err != nil {
		return "", err
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create input file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write input file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close input file: %w", err)
	}
	return dst, nil
}

// SanitizeFilename strips any directory components from name.
func SanitizeFilename(name string) (string, error) {
	return cleanName(name)
}

func cleanName(name string) (string, error) {
	// Uploads from Windows clients may carry backslash separators.
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	switch base {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, nil
}
