// Package storage archives the raw text of ingested documents in
// S3-compatible object storage.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const documentContentType = "text/plain; charset=utf-8"

type S3ClientConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
}

// S3API is the part of the SDK client the archive calls.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

type S3Client struct {
	api    S3API
	bucket string
}

// NewS3Client builds a client with static credentials. A custom endpoint
// targets MinIO or another S3-compatible store.
func NewS3Client(ctx context.Context, cfg S3ClientConfig) (*S3Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewS3ClientWithAPI(api, cfg.Bucket), nil
}

func NewS3ClientWithAPI(api S3API, bucket string) *S3Client {
	return &S3Client{api: api, bucket: bucket}
}

// DocumentKey is the object key of a document's raw text.
func DocumentKey(slug string) string {
	return "documents/" + slug + ".txt"
}

// ArchiveDocument stores text under DocumentKey(slug), overwriting the
// previous upload of the same document. The title and a sha256 of the text
// travel as object metadata.
func (c *S3Client) ArchiveDocument(ctx context.Context, slug, title, text string) (string, error) {
	key := DocumentKey(slug)
	sum := sha256.Sum256([]byte(text))

	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(text),
		ContentType: aws.String(documentContentType),
		Metadata: map[string]string{
			"title":  url.QueryEscape(title),
			"sha256": hex.EncodeToString(sum[:]),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive document %s: %w", slug, err)
	}
	return key, nil
}

// EnsureBucket creates the bucket when HeadBucket reports it missing. Any
// other HeadBucket failure is returned.
func (c *S3Client) EnsureBucket(ctx context.Context) error {
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to check bucket %s: %w", c.bucket, err)
	}

	if _, err := c.api.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
	}
	return nil
}
