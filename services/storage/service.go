package storage

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"

	"github.com/customeros/invoicextract/interfaces"
	"github.com/customeros/invoicextract/internal/tracing"
	"github.com/customeros/invoicextract/services/storage/aws_client"
)

// ObjectStorageService implements StorageService using S3Client
type ObjectStorageService struct {
	client        aws_client.S3Client
	bucketName    string
	isPublic      bool
	publicBaseURL string
}

// StorageConfig holds configuration for object storage
type StorageConfig struct {
	BucketName string
	IsPublic   bool
	// PublicBaseURL replaces the virtual-hosted S3 URL, e.g. a CDN or R2 public domain.
	PublicBaseURL string
}

func NewStorageService(client aws_client.S3Client, config StorageConfig) interfaces.StorageService {
	return &ObjectStorageService{
		client:        client,
		bucketName:    config.BucketName,
		isPublic:      config.IsPublic,
		publicBaseURL: strings.TrimSuffix(config.PublicBaseURL, "/"),
	}
}

// Upload stores data in object storage
func (s *ObjectStorageService) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ObjectStorageService.Upload")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	uploadInput := s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	if s.isPublic {
		uploadInput.ACL = aws.String("public-read")
	}

	err := s.client.Upload(ctx, uploadInput)
	tracing.TraceErr(span, err)
	return err
}

// GetPublicURL returns a public URL for the object
func (s *ObjectStorageService) GetPublicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return "https://" + s.bucketName + ".s3.amazonaws.com/" + key
}
