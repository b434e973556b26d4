package storage

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/interfaces"
	"github.com/customeros/invoicextract/services/storage/aws_client"
)

const (
	ProviderS3 = "s3"
	ProviderR2 = "r2"
)

// NewStorageServiceFromConfig picks the S3 or R2 backend.
func NewStorageServiceFromConfig(cfg *config.StorageConfig) (interfaces.StorageService, error) {
	switch cfg.Provider {
	case "", ProviderS3:
		return NewS3StorageService(cfg.Region, cfg.AccessKeyID, cfg.AccessKeySecret, cfg.Bucket, cfg.PublicBaseURL, cfg.IsPublic)
	case ProviderR2:
		if cfg.PublicBaseURL == "" {
			return nil, errors.New("r2 storage requires STORAGE_PUBLIC_BASE_URL")
		}
		return NewR2StorageService(cfg.AccountID, cfg.AccessKeyID, cfg.AccessKeySecret, cfg.Bucket, cfg.PublicBaseURL, cfg.IsPublic)
	default:
		return nil, errors.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// NewS3StorageService creates a StorageService configured for AWS S3
func NewS3StorageService(awsRegion, accessKeyID, accessKeySecret, bucketName, publicBaseURL string, isPublic bool) (interfaces.StorageService, error) {
	awsCfg := &aws.Config{Region: aws.String(awsRegion)}
	if accessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(accessKeyID, accessKeySecret, "")
	}
	s3Client, err := aws_client.NewS3Client(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "create s3 session")
	}

	return NewStorageService(s3Client, StorageConfig{
		BucketName:    bucketName,
		IsPublic:      isPublic,
		PublicBaseURL: publicBaseURL,
	}), nil
}

// NewR2StorageService creates a StorageService configured for Cloudflare R2
func NewR2StorageService(accountID, accessKeyID, accessKeySecret, bucketName, publicBaseURL string, isPublic bool) (interfaces.StorageService, error) {
	r2Client, err := aws_client.NewR2Client(aws_client.R2Config{
		AccountID:       accountID,
		AccessKeyID:     accessKeyID,
		AccessKeySecret: accessKeySecret,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create r2 session")
	}

	return NewStorageService(r2Client, StorageConfig{
		BucketName:    bucketName,
		IsPublic:      isPublic,
		PublicBaseURL: publicBaseURL,
	}), nil
}
