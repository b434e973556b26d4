package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/interfaces"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/metrics"
	"github.com/customeros/invoicextract/internal/tracing"
	"github.com/customeros/invoicextract/internal/utils"
)

const DefaultKeyPrefix = "invoices"

// ArtifactKey builds the object key {prefix}/{receiverTaxId}/{fileName}.
func ArtifactKey(prefix, receiverTaxId, filePath string) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return fmt.Sprintf("%s/%s/%s", prefix, receiverTaxId, filepath.Base(filePath))
}

// Publisher uploads batch files and resolves their public URLs.
type Publisher struct {
	storage interfaces.StorageService
	logger  logger.Logger
}

func NewPublisher(storage interfaces.StorageService, log logger.Logger) *Publisher {
	return &Publisher{storage: storage, logger: log}
}

// Publish uploads filePath under key. Any failure is reported as
// ErrArtifactUnavailable with an empty URL.
func (p *Publisher) Publish(ctx context.Context, filePath, key string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Publisher.Publish")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogFields(log.String("key", key))

	url, err := p.publish(ctx, filePath, key)
	metrics.RecordUpload(err == nil)
	if err != nil {
		tracing.TraceErr(span, err)
		p.logger.Errorf("Failed to upload %s to %s: %v", filePath, key, err)
		return "", apperrors.Mark(err, apperrors.ErrArtifactUnavailable)
	}
	p.logger.Infof("Uploaded artifact %s", key)
	return url, nil
}

func (p *Publisher) publish(ctx context.Context, filePath, key string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", errors.Wrap(err, "read artifact")
	}
	if err := p.storage.Upload(ctx, key, data, utils.ContentTypeForFile(filePath)); err != nil {
		return "", errors.Wrap(err, "upload artifact")
	}
	url := p.storage.GetPublicURL(key)
	if url == "" {
		return "", errors.New("no public url for artifact")
	}
	return url, nil
}
