package interfaces

import "context"

type StorageService interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GetPublicURL(key string) string
}

type ArtifactPublisher interface {
	Publish(ctx context.Context, filePath, key string) (string, error)
}
