package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joshsymonds/jobsheet/internal/config"
	"github.com/joshsymonds/jobsheet/pkg/logger"
	"github.com/joshsymonds/jobsheet/pkg/pathutil"
)

// PutObjectAPI is the subset of the S3 client used by S3Store.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads files to an S3 or S3-compatible bucket.
type S3Store struct {
	client PutObjectAPI
	logger logger.Logger
	bucket string
	prefix string
}

// NewS3Store builds a client from the default AWS credential chain.
func NewS3Store(ctx context.Context, cfg config.S3Config, log logger.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return NewS3StoreWithClient(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewS3StoreWithClient creates an S3Store around an existing client.
func NewS3StoreWithClient(client PutObjectAPI, bucket, prefix string, log logger.Logger) *S3Store {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: log,
	}
}

// Key returns the object key for name.
func (s *S3Store) Key(name string) string {
	return path.Join(s.prefix, pathutil.SafeFileName(name))
}

// Save uploads data and returns its s3:// location.
func (s *S3Store) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := s.Key(name)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("uploading %s to bucket %s: %w", key, s.bucket, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Info("Uploaded job sheet", "location", location, "bytes", len(data))
	return location, nil
}
