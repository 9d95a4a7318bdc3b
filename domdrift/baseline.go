package domdrift

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Baseline persists the fingerprint of the last successfully parsed page
// so drift survives process restarts. The file holds a single hex value.
type Baseline struct {
	path string
}

// NewBaseline returns a store backed by path. The file is created on the
// first Record call.
func NewBaseline(path string) *Baseline {
	return &Baseline{path: path}
}

// Path returns the backing file path.
func (b *Baseline) Path() string {
	return b.path
}

// Record replaces the stored fingerprint with fp.
func (b *Baseline) Record(fp uint64) error {
	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating baseline directory: %w", err)
		}
	}
	data := strconv.FormatUint(fp, 16) + "\n"
	if err := os.WriteFile(b.path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("writing baseline: %w", err)
	}
	return nil
}

// Load reads the stored fingerprint. The second return is false when no
// baseline has been recorded yet or the file is unreadable; a corrupt
// file is treated the same way rather than failing a scrape over a
// diagnostic.
func (b *Baseline) Load() (uint64, bool) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return 0, false
	}
	fp, err := strconv.ParseUint(strings.TrimSpace(string(data)), 16, 64)
	if err != nil || fp == 0 {
		return 0, false
	}
	return fp, true
}
