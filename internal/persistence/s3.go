package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	defaultS3Region  = "us-east-1"
	slotContentType  = "application/json"
	slotObjectSuffix = ".json"
)

// S3Config selects the bucket and endpoint of an S3Slot. Credentials fall
// back to the default AWS chain when the key fields are empty.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, e.g. a MinIO URL
	PathStyle       bool
	Prefix          string // prepended to the object key
	AccessKeyID     string
	SecretAccessKey string
}

// S3Slot stores the payload as the object <prefix><slot>.json.
type S3Slot struct {
	client *s3.Client
	bucket string
	key    string
	name   string
}

// NewS3Slot creates a slot in the bucket described by cfg. optFns are
// applied to the S3 client options after the configured ones.
func NewS3Slot(ctx context.Context, cfg S3Config, name string, optFns ...func(*s3.Options)) (*S3Slot, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("persistence: s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	opts := append([]func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}, optFns...)
	client := s3.NewFromConfig(awsCfg, opts...)

	return &S3Slot{
		client: client,
		bucket: cfg.Bucket,
		key:    cfg.Prefix + name + slotObjectSuffix,
		name:   name,
	}, nil
}

// Name returns the slot name.
func (s *S3Slot) Name() string { return s.name }

// Key returns the object key.
func (s *S3Slot) Key() string { return s.key }

// Load downloads the object.
func (s *S3Slot) Load(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &s.key})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("loading slot %s: %w", s.name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading slot %s: %w", s.name, err)
	}
	return data, nil
}

// Save uploads data, replacing the object.
func (s *S3Slot) Save(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &s.key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(slotContentType),
	})
	if err != nil {
		return fmt.Errorf("saving slot %s: %w", s.name, err)
	}
	return nil
}

// Clear deletes the object. S3 treats deleting a missing key as success.
func (s *S3Slot) Clear(ctx context.Context) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &s.key}); err != nil {
		if isS3NotFound(err) {
			return nil
		}
		return fmt.Errorf("clearing slot %s: %w", s.name, err)
	}
	return nil
}

// Exists reports whether the object is present.
func (s *S3Slot) Exists(ctx context.Context) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &s.key})
	if err == nil {
		return true, nil
	}
	if isS3NotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking slot %s: %w", s.name, err)
}

func isS3NotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
