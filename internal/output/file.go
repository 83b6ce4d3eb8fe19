package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
)

// FileSink writes run documents into a directory.
type FileSink struct {
	dir string
	log infralogger.Logger
}

// NewFileSink creates a sink rooted at dir.
func NewFileSink(dir string, log infralogger.Logger) *FileSink {
	return &FileSink{dir: dir, log: log.With(infralogger.Component("output"))}
}

// Save writes the batch atomically, replacing an earlier document with the same key.
func (s *FileSink) Save(_ context.Context, batch Batch) error {
	data, err := encode(batch.Articles)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, batch.Key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	path := filepath.Join(s.dir, batch.ObjectName())
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}

	s.log.Info("Saved run document",
		infralogger.String("path", path),
		infralogger.String("run_id", batch.RunID),
		infralogger.Int("articles", len(batch.Articles)),
	)

	return nil
}
