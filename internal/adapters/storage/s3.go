// internal/adapters/storage/s3.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ammerola/stockroom/internal/core/domain"
	"github.com/ammerola/stockroom/internal/core/ports"
)

// S3API is the subset of the S3 client used for photo storage
type S3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3PhotoStorage stores photos as objects in an S3 (or S3-compatible) bucket.
// The reference handed back for a photo is its object key.
type S3PhotoStorage struct {
	client   S3API
	uploader *manager.Uploader
	bucket   string
	region   string
	prefix   string
	logger   *slog.Logger
}

// Statically assert that *S3PhotoStorage implements the PhotoStorage interface.
var _ ports.PhotoStorage = (*S3PhotoStorage)(nil)

// S3Config holds S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // For MinIO/LocalStack
	UsePathStyle    bool   // For MinIO/LocalStack
}

// NewS3PhotoStorage creates an S3 client from cfg and ensures the bucket exists
func NewS3PhotoStorage(ctx context.Context, cfg *S3Config, logger *slog.Logger) (*S3PhotoStorage, error) {
	awsCfg, err := buildAWSConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewS3PhotoStorageWithClient(ctx, client, cfg, logger)
}

// NewS3PhotoStorageWithClient wires photo storage around an existing client
func NewS3PhotoStorageWithClient(ctx context.Context, client S3API, cfg *S3Config, logger *slog.Logger) (*S3PhotoStorage, error) {
	s := &S3PhotoStorage{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		logger:   logger.With(slog.String("storage", "s3")),
	}

	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	logger.Info("S3 photo storage initialized",
		slog.String("bucket", cfg.Bucket),
		slog.String("region", cfg.Region),
		slog.String("prefix", s.prefix))

	return s, nil
}

// buildAWSConfig builds AWS configuration
func buildAWSConfig(ctx context.Context, cfg *S3Config) (aws.Config, error) {
	// Use custom credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		return config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID,
					cfg.SecretAccessKey,
					"",
				),
			),
		)
	}

	// Otherwise use default credential chain
	return config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
}

// ensureBucket ensures the bucket exists
func (s *S3PhotoStorage) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	// us-east-1 rejects an explicit location constraint
	if s.region != "" && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, createErr := s.client.CreateBucket(ctx, input); createErr != nil {
		return fmt.Errorf("bucket %s does not exist and could not be created: %w", s.bucket, createErr)
	}

	s.logger.Info("created S3 bucket", slog.String("bucket", s.bucket))
	return nil
}

// Save uploads the photo under a generated key
func (s *S3PhotoStorage) Save(ctx context.Context, filename, contentType string, data io.Reader) (string, error) {
	key := s.key(objectName(filename))

	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"uploaded-at":       time.Now().Format(time.RFC3339),
			"original-filename": filepath.Base(filename),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: upload photo: %v", domain.ErrStorageWrite, err)
	}

	s.logger.InfoContext(ctx, "photo uploaded", slog.String("key", key))
	return key, nil
}

// Open streams a stored photo
func (s *S3PhotoStorage) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: photo object %s", domain.ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}
	return out.Body, nil
}

// Delete removes a stored photo
func (s *S3PhotoStorage) Delete(ctx context.Context, ref string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	s.logger.InfoContext(ctx, "photo deleted", slog.String("key", ref))
	return nil
}

// List lists all photo objects under the configured prefix
func (s *S3PhotoStorage) List(ctx context.Context) ([]ports.StoredPhoto, error) {
	var photos []ports.StoredPhoto

	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix + "/")
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			photo := ports.StoredPhoto{
				Ref:  aws.ToString(obj.Key),
				Size: obj.Size,
			}
			if obj.LastModified != nil {
				photo.ModTime = *obj.LastModified
			}
			photos = append(photos, photo)
		}
	}

	s.logger.DebugContext(ctx, "listed photos", slog.Int("count", len(photos)))
	return photos, nil
}

func (s *S3PhotoStorage) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	return strings.Contains(err.Error(), "StatusCode: 404")
}
