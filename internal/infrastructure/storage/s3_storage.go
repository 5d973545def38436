// Package storage provides the S3-compatible archive for stored exports.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/crm/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrStorageDisabled is returned when a stored export is requested but no bucket is configured
var ErrStorageDisabled = errors.New("storage: export archive is not configured")

const (
	defaultRegion     = "us-east-1"
	defaultPresignTTL = 15 * time.Minute
)

// s3API is the slice of the S3 client used by the archive
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3Storage archives export files in an S3-compatible bucket (AWS S3, MinIO, RustFS)
// and hands out presigned download links.
type S3Storage struct {
	client     s3API
	presign    *s3.PresignClient
	bucket     string
	keyPrefix  string
	presignTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures an S3Storage
type Option func(*S3Storage)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *S3Storage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPresignTTL overrides the lifetime of download links
func WithPresignTTL(d time.Duration) Option {
	return func(s *S3Storage) {
		if d > 0 {
			s.presignTTL = d
		}
	}
}

// NewS3Storage builds an S3Storage from configuration. No network call is made.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig, opts ...Option) (*S3Storage, error) {
	if !cfg.Enabled {
		return nil, ErrStorageDisabled
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("storage credentials are required")
	}

	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3Storage{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		keyPrefix:  strings.Trim(cfg.KeyPrefix, "/"),
		presignTTL: cfg.PresignTTL,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	if s.presignTTL <= 0 {
		s.presignTTL = defaultPresignTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// normalizeEndpoint returns "" for AWS itself, otherwise an absolute URL.
func normalizeEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid storage endpoint %q", endpoint)
	}
	return strings.TrimRight(endpoint, "/"), nil
}

// ObjectKey places name under the configured prefix
func (s *S3Storage) ObjectKey(name string) string {
	name = strings.TrimLeft(name, "/")
	if s.keyPrefix == "" {
		return name
	}
	return path.Join(s.keyPrefix, name)
}

// Bucket returns the bucket name
func (s *S3Storage) Bucket() string {
	return s.bucket
}

// Upload stores body under key (the prefix is applied here) and returns the full object key.
func (s *S3Storage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("storage key is required")
	}
	objectKey := s.ObjectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(objectKey),
		Body:               body,
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", path.Base(objectKey))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	s.logger.Info("export archived",
		zap.String("bucket", s.bucket),
		zap.String("key", objectKey),
	)
	return objectKey, nil
}

// PresignGet returns a time-limited download link for an object key returned by Upload.
func (s *S3Storage) PresignGet(ctx context.Context, objectKey string) (string, time.Time, error) {
	if objectKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign download: %w", err)
	}
	return req.URL, s.now().Add(s.presignTTL), nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) && !strings.Contains(err.Error(), "NotFound") {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}

	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("created export bucket", zap.String("bucket", s.bucket))
	return nil
}
