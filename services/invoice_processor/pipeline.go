package invoice_processor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/interfaces"
	"github.com/customeros/invoicextract/internal/enum"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
	"github.com/customeros/invoicextract/services/storage"
	"github.com/customeros/invoicextract/services/ubl"
)

// Pipeline turns one message with attachments into a submitted invoice.
type Pipeline struct {
	cfg          *config.ProcessingConfig
	keyPrefix    string
	materializer interfaces.AttachmentMaterializer
	parser       interfaces.InvoiceParser
	publisher    interfaces.ArtifactPublisher
	submitter    interfaces.InvoiceSubmitter
	logger       logger.Logger
}

func NewPipeline(cfg *config.ProcessingConfig, keyPrefix string,
	materializer interfaces.AttachmentMaterializer,
	parser interfaces.InvoiceParser,
	publisher interfaces.ArtifactPublisher,
	submitter interfaces.InvoiceSubmitter,
	log logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		keyPrefix:    keyPrefix,
		materializer: materializer,
		parser:       parser,
		publisher:    publisher,
		submitter:    submitter,
		logger:       log,
	}
}

// Process materializes, parses, publishes and submits. An error means the
// message belongs in the error folder; upload and submission failures are
// only logged.
func (p *Pipeline) Process(ctx context.Context, msg *dto.InboundMessage) (*dto.ProcessingResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Pipeline.Process")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("uid", msg.UID)

	batch, err := p.materializer.Materialize(ctx, msg)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "materialize uid %d", msg.UID)
	}
	result := &dto.ProcessingResult{Outcome: enum.OutcomeProcessed, Batch: batch.Dir}

	xmlPath := p.materializer.LocateXML(batch)
	if xmlPath == "" {
		p.logger.Warnf("No invoice XML in batch %s for message %q", batch.Dir, msg.Subject)
		p.finish(batch)
		return result, nil
	}

	p.logger.Infof("Processing electronic document %s", xmlPath)
	doc, err := p.parser.Parse(ctx, xmlPath)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "parse %s", xmlPath)
	}
	result.Document = doc
	tracing.TagEntity(span, doc.DocumentNumber)
	p.logger.Infof("Document %s loaded for receiver %s", doc.DocumentNumber, doc.ReceiverTaxId)

	files, err := p.materializer.Files(batch)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "list batch %s", batch.Dir)
	}
	result.Artifacts = p.publish(ctx, doc, files)

	doc.DocumentType = ubl.NormalizeDocumentType(doc.DocumentType)

	result.Complete = ubl.IsComplete(doc)
	if !result.Complete {
		missing := strings.Join(ubl.MissingFields(doc), ", ")
		if p.cfg.BlockIncompleteDocuments {
			p.logger.Warnf("Skipping submission of incomplete document %s, missing: %s", xmlPath, missing)
			p.finish(batch)
			return result, nil
		}
		p.logger.Warnf("Document %s is incomplete, missing: %s", xmlPath, missing)
	}

	submission := p.submitter.Submit(ctx, doc)
	result.Submission = &submission
	if submission.Accepted {
		p.logger.Infof("Document sent for receiver %s", doc.ReceiverTaxId)
	} else {
		p.logger.Errorf("Error sending document for receiver %s", doc.ReceiverTaxId)
	}

	p.finish(batch)
	return result, nil
}

// publish uploads the batch's XML and PDF files. The last file of each
// kind wins the document URL.
func (p *Pipeline) publish(ctx context.Context, doc *dto.InvoiceDocument, files []string) []dto.UploadArtifact {
	var artifacts []dto.UploadArtifact
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file))
		if ext != ".xml" && ext != ".pdf" {
			continue
		}

		key := storage.ArtifactKey(p.keyPrefix, doc.ReceiverTaxId, file)
		url, err := p.publisher.Publish(ctx, file, key)
		if err != nil {
			p.logger.Warnf("Artifact %s unavailable: %v", key, err)
		}
		artifacts = append(artifacts, dto.UploadArtifact{Key: key, URL: url})

		switch ext {
		case ".xml":
			doc.InvoicePathXML = url
		case ".pdf":
			doc.InvoicePathPDF = url
		}
	}
	return artifacts
}

func (p *Pipeline) finish(batch *dto.DownloadBatch) {
	if p.cfg.DeleteBatchOnSuccess {
		p.materializer.Cleanup(batch.Dir)
	}
}
