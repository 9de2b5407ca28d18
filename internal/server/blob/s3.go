package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/solward/accountd/internal/common"
)

// S3Bucket implements Bucket on an S3-compatible backend. The object ETag
// serves as the version tag; conditional writes use If-Match preconditions,
// which the backend enforces atomically.
type S3Bucket struct {
	client *s3.Client
	bucket string
}

// S3Options carries the connection settings for NewS3Bucket.
type S3Options struct {
	AccessKey    string
	SecretKey    string
	Region       string
	BaseEndpoint string
	Bucket       string
}

// NewS3Bucket builds an S3 client with static credentials. BaseEndpoint may
// point at a MinIO instance in development.
func NewS3Bucket(ctx context.Context, opts S3Options) (*S3Bucket, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Bucket{client: client, bucket: opts.Bucket}, nil
}

func (b *S3Bucket) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", ErrNotExist
		}
		return nil, "", fmt.Errorf("%w: get %s: %v", common.ErrStorageUnavailable, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %v", common.ErrStorageUnavailable, key, err)
	}

	return data, aws.ToString(out.ETag), nil
}

func (b *S3Bucket) Put(ctx context.Context, key string, data []byte, version string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	}
	// An empty version tag means "create only": the write must fail if
	// someone else created the object first.
	if version == "" {
		input.IfNoneMatch = aws.String("*")
	} else {
		input.IfMatch = aws.String(version)
	}

	out, err := b.client.PutObject(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "PreconditionFailed", "ConditionalRequestConflict":
				return "", ErrVersionMismatch
			}
		}
		return "", fmt.Errorf("%w: put %s: %v", common.ErrStorageUnavailable, key, err)
	}

	return aws.ToString(out.ETag), nil
}
