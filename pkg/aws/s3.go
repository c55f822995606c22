package aws

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3API is the part of *s3.Client the media store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client creates a new S3 client from AWS config. Path-style addressing
// is forced when a custom endpoint is configured.
func NewS3Client(cfg sdkaws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != nil {
			o.UsePathStyle = true
		}
	})
}

// UploadedImage identifies a stored image. PublicID is the object key and is
// what Delete expects.
type UploadedImage struct {
	PublicID string
	URL      string
}

// S3MediaStore stores restaurant images in a single bucket.
type S3MediaStore struct {
	client    S3API
	bucket    string
	prefix    string
	endpoint  string
	cdnDomain string
}

func NewS3MediaStore(client S3API, bucket, prefix, endpoint, cdnDomain string) *S3MediaStore {
	return &S3MediaStore{
		client:    client,
		bucket:    bucket,
		prefix:    prefix,
		endpoint:  endpoint,
		cdnDomain: cdnDomain,
	}
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Upload puts data under a fresh key and returns its public location.
func (s *S3MediaStore) Upload(ctx context.Context, data []byte, contentType string) (*UploadedImage, error) {
	key := fmt.Sprintf("%srestaurant_img_%s%s", s.prefix, uuid.NewString(), imageExtensions[contentType])

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        sdkaws.String(s.bucket),
		Key:           sdkaws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   sdkaws.String(contentType),
		ContentLength: sdkaws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put object %s: %w", key, err)
	}

	return &UploadedImage{PublicID: key, URL: s.PublicURL(key)}, nil
}

// Delete removes the object identified by publicID.
func (s *S3MediaStore) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: sdkaws.String(s.bucket),
		Key:    sdkaws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", publicID, err)
	}
	return nil
}

// PublicURL prefers the CDN domain, then the custom endpoint, then the
// virtual-hosted S3 URL.
func (s *S3MediaStore) PublicURL(key string) string {
	switch {
	case s.cdnDomain != "":
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(s.cdnDomain, "/"), key)
	case s.endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
}
