package snapshot

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aristath/scorecard/internal/modules/scoring/domain"
)

// ObjectGetter is the subset of the S3 client used to fetch snapshots
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configure the S3 client
type S3Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client. Static credentials are used when both
// keys are set; otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return s3.NewFromConfig(awsCfg), nil
}

// S3Source reads a CSV snapshot stored as an S3 object
type S3Source struct {
	client ObjectGetter
	bucket string
	key    string
}

// NewS3Source creates a source for s3://bucket/key
func NewS3Source(client ObjectGetter, bucket, key string) (*S3Source, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 snapshot source needs both bucket and key")
	}
	return &S3Source{client: client, bucket: bucket, key: key}, nil
}

// Load fetches and parses the object
func (s *S3Source) Load(ctx context.Context) ([]domain.RawRecord, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", s.Describe(), err)
	}
	defer out.Body.Close()

	records, err := ReadCSV(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Describe(), err)
	}
	return records, nil
}

// Describe returns the object URL
func (s *S3Source) Describe() string {
	return "s3://" + s.bucket + "/" + s.key
}
