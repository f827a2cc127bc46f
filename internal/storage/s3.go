// Package storage publishes dataset files to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"povcli/internal/config"
	apperrors "povcli/internal/errors"
	"povcli/internal/infrastructure"
	"povcli/internal/retry"
)

// ErrUploadFailed is returned when a file could not be published
var ErrUploadFailed = errors.New("upload failed")

// ObjectPutter is the part of the S3 API the uploader needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// contentTypes maps published file extensions to MIME types
var contentTypes = map[string]string{
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".json": "application/json",
}

// NewS3Client creates a client for the configured endpoint. Credentials come
// from the usual AWS sources, optionally narrowed to a shared profile.
func NewS3Client(ctx context.Context, cfg config.UploadConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load AWS config", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// Uploader publishes local files under the configured bucket and prefix
type Uploader struct {
	client ObjectPutter
	cfg    config.UploadConfig
	retry  retry.Config
	logger *slog.Logger
}

// NewUploader creates an uploader
func NewUploader(client ObjectPutter, cfg config.UploadConfig, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.MaxAttempts
	rc.MaxDelay = 30 * time.Second
	return &Uploader{
		client: client,
		cfg:    cfg,
		retry:  rc,
		logger: infrastructure.WithComponent(logger, "uploader"),
	}
}

// ObjectKey returns the key a local file is published under
func (u *Uploader) ObjectKey(localPath string) string {
	return path.Join(u.cfg.Prefix, filepath.Base(localPath))
}

// URL returns the s3:// location of a local file once published
func (u *Uploader) URL(localPath string) string {
	return fmt.Sprintf("s3://%s/%s", u.cfg.Bucket, u.ObjectKey(localPath))
}

// UploadFiles publishes files concurrently, at most cfg.Concurrency at a
// time. The first failure cancels the remaining uploads.
func (u *Uploader) UploadFiles(ctx context.Context, files []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(u.cfg.Concurrency, 1))

	for _, f := range files {
		g.Go(func() error {
			return u.UploadFile(gctx, f)
		})
	}
	return g.Wait()
}

// UploadFile publishes one file, retrying transient failures
func (u *Uploader) UploadFile(ctx context.Context, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer file.Close()

	key := u.ObjectKey(localPath)
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if ct, ok := contentTypes[filepath.Ext(localPath)]; ok {
		input.ContentType = aws.String(ct)
	}
	if u.cfg.Public {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	u.logger.InfoContext(ctx, "uploading file",
		slog.String("local_path", localPath),
		slog.String("destination", u.URL(localPath)),
		slog.Bool("public", u.cfg.Public))

	start := time.Now()
	err = retry.WithBackoff(ctx, u.retry, u.logger, "put_object", func(ctx context.Context) error {
		if _, err := file.Seek(0, 0); err != nil {
			return retry.Permanent(err)
		}
		_, err := u.client.PutObject(ctx, input)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUploadFailed, key, err)
	}

	u.logger.InfoContext(ctx, "file uploaded",
		slog.String("destination", u.URL(localPath)),
		slog.Duration("duration", time.Since(start)))
	return nil
}
