package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"cfs-go/internal/cfs"
)

// S3Options configure an S3Store.
type S3Options struct {
	Bucket string
	// KeyPrefix is prepended to every object key, e.g. "indexes/host-a/".
	KeyPrefix string
	Region    string
	// Endpoint overrides the AWS endpoint, for S3-compatible storage
	// (MinIO, Localstack). Forces path-style addressing.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store writes the index into an object bucket. Object storage has no
// directories, symlinks or file attributes, so only records become objects:
// MkDir is a no-op, symlinks are skipped with a warning and ApplyAttrs does
// nothing. The index shape survives in the object keys.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	logger   cfs.Logger
}

// NewS3Store builds an S3 client from the options and verifies bucket
// access. The bucket must already exist.
func NewS3Store(ctx context.Context, opts S3Options, logger cfs.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 store: bucket is required")
	}
	if opts.Region == "" {
		return nil, fmt.Errorf("s3 store: region is required")
	}

	configOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}

	if opts.Endpoint != "" {
		//nolint:staticcheck // BaseEndpoint migration pending
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck
				return aws.Endpoint{
					URL:               opts.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck
		configOptions = append(configOptions, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		provider := credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
		configOptions = append(configOptions, awsconfig.WithCredentialsProvider(provider))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Path-style addressing for compatibility with MinIO/Localstack.
		if opts.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(opts.Bucket),
	}); err != nil {
		return nil, fmt.Errorf("accessing bucket %q: %w", opts.Bucket, err)
	}

	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   opts.Bucket,
		prefix:   opts.KeyPrefix,
		logger:   logger,
	}, nil
}

func (s *S3Store) key(relativePath string) string {
	return s.prefix + relativePath
}

// Exists reports whether an object already occupies the key.
func (s *S3Store) Exists(relativePath string) (bool, error) {
	_, err := s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(relativePath)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking object existence: %w", err)
	}
	return true, nil
}

// MkDir is a no-op: object keys carry the tree structure.
func (s *S3Store) MkDir(relativePath string) error {
	return nil
}

// WriteRecord uploads an encoded record as one object.
func (s *S3Store) WriteRecord(relativePath string, data []byte) error {
	_, err := s.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(relativePath)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("uploading record: %w", err)
	}
	return nil
}

// WriteSymlink skips the entry: object storage has no symlinks.
func (s *S3Store) WriteSymlink(relativePath, target string) error {
	s.logger.Warn("symlink not representable in object storage, skipping", "path", relativePath, "target", target)
	return nil
}

// ApplyAttrs is a no-op: objects carry no filesystem attributes.
func (s *S3Store) ApplyAttrs(relativePath string, attrs cfs.Attrs) []error {
	return nil
}

// Compile-time check that S3Store implements cfs.Store interface
var _ cfs.Store = (*S3Store)(nil)
