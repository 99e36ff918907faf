package maintenance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	v1 "github.com/fanzdash/pulse/internal/api/v1"
)

// s3API is the subset of the S3 client used for snapshots.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures an S3Snapshotter.
// Empty AccessKeyID falls back to the default credential chain.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Snapshotter stores snapshots as objects under <prefix>/events-YYYY-MM-DD.json.
type S3Snapshotter struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Snapshotter builds an S3 client from opts.
func NewS3Snapshotter(ctx context.Context, opts S3Options) (*S3Snapshotter, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 snapshot bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
	return newS3Snapshotter(client, opts.Bucket, opts.Prefix), nil
}

func newS3Snapshotter(client s3API, bucket, prefix string) *S3Snapshotter {
	return &S3Snapshotter{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Snapshotter) key(date string) string {
	return path.Join(s.prefix, SnapshotName(date))
}

// Prepare is a no-op; bucket access is checked by the first write.
func (s *S3Snapshotter) Prepare(context.Context) error { return nil }

func (s *S3Snapshotter) Write(ctx context.Context, date string, events []*v1.AnalyticsEvent) error {
	data, err := encodeSnapshot(events)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(date)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, s.key(date), err)
	}
	return nil
}

func (s *S3Snapshotter) Read(ctx context.Context, date string) ([]*v1.AnalyticsEvent, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(date)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, date)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.key(date), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3 snapshot body: %w", err)
	}
	return decodeSnapshot(data)
}
