// Package publish uploads run artifacts (report and exports) to S3.
package publish

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"

	"catalog-sync/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader is the part of the S3 client used for publishing
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads files under bucket/prefix/<run id>/
type Publisher struct {
	client Uploader
	bucket string
	prefix string
	logger types.Logger
}

// New creates a publisher using an S3 client built from the default AWS
// credential chain
func New(ctx context.Context, bucket, prefix, region string, logger types.Logger) (*Publisher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket, prefix, logger), nil
}

// NewWithClient creates a publisher around an existing client
func NewWithClient(client Uploader, bucket, prefix string, logger types.Logger) *Publisher {
	return &Publisher{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Key returns the object key for file in run
func (p *Publisher) Key(runID, file string) string {
	return path.Join(p.prefix, runID, filepath.Base(file))
}

// Publish uploads files and returns their object keys. It stops at the
// first failure.
func (p *Publisher) Publish(ctx context.Context, runID string, files ...string) ([]string, error) {
	var keys []string
	for _, file := range files {
		if file == "" {
			continue
		}
		key, err := p.upload(ctx, runID, file)
		if err != nil {
			return keys, err
		}
		p.logger.Infof("Published %s to s3://%s/%s", filepath.Base(file), p.bucket, key)
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *Publisher) upload(ctx context.Context, runID, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(file))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := p.Key(runID, file)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", file, err)
	}
	return key, nil
}
