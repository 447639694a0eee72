package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/models"
)

// Kind classifies a stored object by media type.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// KindFromPath derives the media kind from a file extension. Anything that
// is not a known video container is treated as an image.
func KindFromPath(p string) Kind {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".mp4", ".mkv", ".webm", ".mov", ".avi", ".m4v":
		return KindVideo
	default:
		return KindImage
	}
}

// S3Storage implements the object-store gateway backed by an S3-compatible
// service. Every call is bounded by the configured timeout so a hung upload
// surfaces as a failure rather than blocking the request indefinitely.
type S3Storage struct {
	uploader *manager.Uploader
	client   *s3.Client
	bucket   string
	baseURL  string
	timeout  time.Duration
}

// NewS3Storage configures an uploader and client targeting the provided
// object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &S3Storage{
		uploader: uploader,
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		timeout:  timeout,
	}, nil
}

// Upload pushes a staged local file into the bucket under the given folder
// and returns the resulting asset reference. The object key embeds a fresh
// UUID so repeated uploads of the same filename never collide.
func (s *S3Storage) Upload(ctx context.Context, localPath, folder string) (models.AssetRef, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return models.AssetRef{}, fmt.Errorf("s3 storage open %s: %w", localPath, err)
	}
	defer file.Close()

	key := path.Join(strings.Trim(folder, "/"), uuid.NewString()+strings.ToLower(filepath.Ext(localPath)))

	uploadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.uploader.Upload(uploadCtx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return models.AssetRef{}, fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return models.AssetRef{Key: key, URL: s.publicURL(key)}, nil
}

// Delete removes an object by key. Deleting a missing object succeeds, which
// keeps compensation and cascade retries idempotent.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}

	deleteCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObject(deleteCtx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 storage delete %s: %w", key, err)
	}

	return nil
}

func (s *S3Storage) publicURL(key string) string {
	if s.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}
