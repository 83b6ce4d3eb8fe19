// Package output persists the articles of a run as one JSON document.
package output

import (
	"context"
	"encoding/json"
	"fmt"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/harvester/internal/domain"
)

// Batch is the output of one run.
type Batch struct {
	Key      string
	RunID    string
	Topics   []string
	Articles []domain.Article
}

// ObjectName is the file or object name of the batch document.
func (b Batch) ObjectName() string {
	return b.Key + ".json"
}

//go:generate mockgen -destination=../../testutils/mocks/output/sink.go -package=output . Sink

// Sink stores run documents.
type Sink interface {
	Save(ctx context.Context, batch Batch) error
}

// New returns the sink selected by cfg.Driver.
func New(ctx context.Context, cfg Config, log infralogger.Logger) (Sink, error) {
	cfg = cfg.WithDefaults()

	switch cfg.Driver {
	case DriverFile:
		return NewFileSink(cfg.Dir, log), nil
	case DriverMinIO:
		return NewMinIOSink(ctx, cfg.MinIO, log)
	default:
		return nil, fmt.Errorf("unknown output driver %q", cfg.Driver)
	}
}

// encode renders the document body: the article records as a JSON array.
func encode(articles []domain.Article) ([]byte, error) {
	if articles == nil {
		articles = []domain.Article{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal articles: %w", err)
	}
	return data, nil
}
