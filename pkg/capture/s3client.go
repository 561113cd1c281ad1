package capture

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures NewS3Client.
type S3Options struct {
	// Region is the bucket region.
	// Default: $AWS_REGION, then "us-east-1".
	Region string

	// Endpoint overrides the service endpoint, for S3 compatible stores.
	Endpoint string

	// PathStyle addresses buckets as endpoint/bucket instead of
	// bucket.endpoint.
	PathStyle bool
}

// ErrNoCredentials is returned when the AWS credential variables are unset.
var ErrNoCredentials = errors.New("capture: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are not set")

// EnvCredentials reads static credentials from the standard AWS environment
// variables.
type EnvCredentials struct{}

// Retrieve implements aws.CredentialsProvider.
func (EnvCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, ErrNoCredentials
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "EnvCredentials",
	}, nil
}

// NewS3Client returns an S3 client using EnvCredentials.
func NewS3Client(opts S3Options) *s3.Client {
	region := opts.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}
	o := s3.Options{
		Region:       region,
		Credentials:  aws.NewCredentialsCache(EnvCredentials{}),
		UsePathStyle: opts.PathStyle,
	}
	if opts.Endpoint != "" {
		o.BaseEndpoint = aws.String(opts.Endpoint)
	}
	return s3.New(o)
}
