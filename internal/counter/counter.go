// Package counter issues work-order identifiers from a counter file that
// survives process restarts.
//
// The counter assumes a single writer. Two processes calling NextID at the
// same time can read the same value and hand out duplicate identifiers; the
// simulator runs one operator per data directory, so no file lock is taken.
package counter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File is a durable counter stored as a human-readable integer.
type File struct {
	path string
}

// NewFile returns a counter backed by path. The file is created lazily.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the counter file location.
func (f *File) Path() string {
	return f.path
}

// Current returns the last issued value. Missing or corrupt files read as 0.
func (f *File) Current() int {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NextID increments the counter, persists it and returns the formatted ID.
func (f *File) NextID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	next := f.Current() + 1

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create counter directory: %w", err)
		}
	}
	if err := os.WriteFile(f.path, []byte(strconv.Itoa(next)), 0644); err != nil {
		return "", fmt.Errorf("write counter: %w", err)
	}
	return FormatID(next), nil
}

// FormatID renders n as a work-order identifier.
func FormatID(n int) string {
	return fmt.Sprintf("WO-%06d", n)
}
