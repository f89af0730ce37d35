package cache

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
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"si-go/internal/config"
	"si-go/internal/si"
)

// S3Store keeps the cache document as a single object in an S3 bucket, so
// the same roster and nicknames follow the user across machines. The object
// key is <prefix>/<profile>.json.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	key      string
}

// NewS3Store creates a store from cache config. Static credentials are used
// when both keys are set; otherwise the default AWS credential chain applies.
func NewS3Store(cfg config.CacheConfig, profile string) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 cache requires s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
			// S3-compatible stores often reject the SDK's default checksums.
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})

	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.S3Bucket,
		key:      objectKey(cfg.S3Prefix, profile),
	}, nil
}

func objectKey(prefix, profile string) string {
	if profile == "" {
		profile = config.DefaultProfile
	}
	return path.Join(prefix, profile+".json")
}

// IsInitialized reports whether the cache object exists.
func (s *S3Store) IsInitialized() bool {
	_, err := s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	return err == nil
}

// Load downloads and decodes the cache object.
func (s *S3Store) Load() (*si.CacheDocument, error) {
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: s3://%s/%s does not exist, run setup first", si.ErrCacheNotFound, s.bucket, s.key)
		}
		return nil, fmt.Errorf("downloading s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return si.DecodeDocument(data)
}

// Save encodes doc and uploads it, replacing the previous object.
func (s *S3Store) Save(doc *si.CacheDocument) error {
	data, err := si.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", si.ErrCacheWrite, err)
	}

	_, err = s.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: uploading s3://%s/%s: %v", si.ErrCacheWrite, s.bucket, s.key, err)
	}
	return nil
}

// Compile-time check that S3Store implements si.CacheStore interface
var _ si.CacheStore = (*S3Store)(nil)
