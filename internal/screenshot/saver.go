// Package screenshot persists captured frames to disk for later review.
package screenshot

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Saver writes one task session's screenshots into a timestamped directory.
// A nil Saver is valid and saves nothing, so callers need no enabled check.
type Saver struct {
	dir    string
	step   int
	logger *zap.Logger
}

// NewSession creates a saver rooted at base with a fresh session directory.
// An empty base disables saving.
func NewSession(base string, logger *zap.Logger) (*Saver, error) {
	if base == "" {
		return nil, nil
	}
	dir := filepath.Join(base, time.Now().Format("2006-01-02_15-04-05.000"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating screenshot dir: %w", err)
	}
	return &Saver{dir: dir, logger: logger.Named("screenshot")}, nil
}

// Dir returns the session directory, empty for a disabled saver.
func (s *Saver) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

// Save decodes and writes one base64 PNG frame, named by step order.
func (s *Saver) Save(b64 string) error {
	if s == nil {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("decoding screenshot: %w", err)
	}
	s.step++
	name := fmt.Sprintf("step_%03d_%s.png", s.step, time.Now().Format("150405"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}
	s.logger.Debug("screenshot saved", zap.String("path", path))
	return nil
}
