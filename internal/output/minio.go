package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
)

// MinIOSink uploads run documents to an S3-compatible bucket.
type MinIOSink struct {
	client *miniogo.Client
	cfg    MinIOConfig
	log    infralogger.Logger
}

// NewMinIOSink connects to MinIO and creates the bucket when it is missing.
func NewMinIOSink(ctx context.Context, cfg MinIOConfig, log infralogger.Logger) (*MinIOSink, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = defaultUploadTimeout
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	sink := &MinIOSink{
		client: client,
		cfg:    cfg,
		log:    log.With(infralogger.Component("output")),
	}
	if err = sink.ensureBucket(ctx); err != nil {
		return nil, err
	}

	sink.log.Info("MinIO sink initialized",
		infralogger.String("endpoint", cfg.Endpoint),
		infralogger.String("bucket", cfg.Bucket),
	)

	return sink, nil
}

func (s *MinIOSink) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}

	if err = s.client.MakeBucket(ctx, s.cfg.Bucket, miniogo.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

// ObjectKey is the object name of a batch, under the configured prefix.
func (s *MinIOSink) ObjectKey(batch Batch) string {
	prefix := strings.Trim(s.cfg.Prefix, "/")
	if prefix == "" {
		return batch.ObjectName()
	}
	return prefix + "/" + batch.ObjectName()
}

// Save uploads the batch document.
func (s *MinIOSink) Save(ctx context.Context, batch Batch) error {
	data, err := encode(batch.Articles)
	if err != nil {
		return err
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	objectKey := s.ObjectKey(batch)
	_, err = s.client.PutObject(
		uploadCtx,
		s.cfg.Bucket,
		objectKey,
		bytes.NewReader(data),
		int64(len(data)),
		miniogo.PutObjectOptions{
			ContentType: "application/json",
			UserMetadata: map[string]string{
				"run-id":        batch.RunID,
				"topics":        strings.Join(batch.Topics, ","),
				"article-count": strconv.Itoa(len(batch.Articles)),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upload run document: %w", err)
	}

	s.log.Info("Uploaded run document",
		infralogger.String("object_key", objectKey),
		infralogger.String("run_id", batch.RunID),
		infralogger.Int("size", len(data)),
	)

	return nil
}
