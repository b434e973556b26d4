package interfaces

import (
	"context"

	"github.com/customeros/invoicextract/dto"
)

type AttachmentMaterializer interface {
	Materialize(ctx context.Context, msg *dto.InboundMessage) (*dto.DownloadBatch, error)
	Files(batch *dto.DownloadBatch) ([]string, error)
	LocateXML(batch *dto.DownloadBatch) string
	Cleanup(dir string)
}

type InvoiceParser interface {
	// Parse always returns a document; err reports an unreadable file.
	Parse(ctx context.Context, path string) (*dto.InvoiceDocument, error)
}

type InvoiceSubmitter interface {
	Submit(ctx context.Context, doc *dto.InvoiceDocument) dto.SubmissionResult
}
