// internal/probes/s3.go
package probes

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Probe checks an S3-compatible endpoint by heading a bucket.
type S3Probe struct {
	name   string
	bucket string
	client *s3.Client
}

// S3Config holds the endpoint settings for one S3 probe.
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// NewS3Probe builds a probe against cfg.Bucket. Path-style addressing keeps
// MinIO and other self-hosted endpoints working.
func NewS3Probe(ctx context.Context, name string, cfg S3Config) (*S3Probe, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Probe{name: name, bucket: cfg.Bucket, client: client}, nil
}

func (p *S3Probe) Name() string { return p.name }

func (p *S3Probe) Probe(ctx context.Context) error {
	_, err := p.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(p.bucket),
	})
	return err
}
