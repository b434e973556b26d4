package attachments

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/dto"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
	"github.com/customeros/invoicextract/internal/utils"
)

const (
	cleanupRetries = 3
	cleanupPause   = time.Second
)

// Materializer writes message attachments into per-message scratch batches.
type Materializer struct {
	root   string
	logger logger.Logger

	now       func() time.Time
	sleep     func(time.Duration)
	removeAll func(string) error
}

func NewMaterializer(cfg *config.ProcessingConfig, log logger.Logger) *Materializer {
	return &Materializer{
		root:      cfg.DownloadDir,
		logger:    log,
		now:       time.Now,
		sleep:     time.Sleep,
		removeAll: os.RemoveAll,
	}
}

func (m *Materializer) Root() string {
	return m.root
}

// Materialize creates a fresh batch directory and writes every supported
// attachment into it. A failing attachment is logged and skipped.
func (m *Materializer) Materialize(ctx context.Context, msg *dto.InboundMessage) (*dto.DownloadBatch, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Materializer.Materialize")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	now := m.now()
	name, err := utils.GenerateBatchName(now)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, apperrors.Mark(errors.Wrap(err, "generate batch name"), apperrors.ErrScratchDir)
	}
	dir := filepath.Join(m.root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		tracing.TraceErr(span, err)
		return nil, apperrors.Mark(errors.Wrapf(err, "create %s", dir), apperrors.ErrScratchDir)
	}
	span.LogFields(log.String("batch", dir), log.Int("attachments", len(msg.Attachments)))

	for i, att := range msg.Attachments {
		if err := m.writeAttachment(dir, i, att); err != nil {
			m.logger.Errorf("Failed to materialize attachment %q of message %d: %v", att.FileName, msg.UID, err)
		}
	}

	return &dto.DownloadBatch{Dir: dir, CreatedAt: now}, nil
}

func (m *Materializer) writeAttachment(dir string, index int, att dto.InboundAttachment) error {
	name := attachmentFileName(att, index)

	switch utils.ClassifyAttachment(att.ContentType, name) {
	case utils.AttachmentArchive:
		archivePath := filepath.Join(dir, name)
		if err := os.WriteFile(archivePath, att.Content, 0o644); err != nil {
			return errors.Wrap(err, "write archive")
		}
		target := extractionDir(dir, name)
		if err := extractZip(archivePath, target); err != nil {
			return errors.Wrapf(err, "extract %s", name)
		}
		m.extractNested(target)
		return nil
	case utils.AttachmentDocument:
		return errors.Wrap(os.WriteFile(filepath.Join(dir, name), att.Content, 0o644), "write document")
	default:
		m.logger.Debugf("Skipping attachment %q with content type %s", name, att.ContentType)
		return nil
	}
}

// extractNested unpacks archives found directly inside dir. Archives inside
// those are left packed.
func (m *Materializer) extractNested(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.logger.Warnf("Failed to list %s: %v", dir, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !utils.HasExtension(entry.Name(), ".zip") {
			continue
		}
		if err := extractZip(filepath.Join(dir, entry.Name()), extractionDir(dir, entry.Name())); err != nil {
			m.logger.Errorf("Failed to extract nested archive %s: %v", entry.Name(), err)
		}
	}
}

// Cleanup removes dir, retrying a few times before giving up quietly.
func (m *Materializer) Cleanup(dir string) {
	for attempt := 0; ; attempt++ {
		err := m.removeAll(dir)
		if err == nil {
			return
		}
		if attempt >= cleanupRetries {
			m.logger.Warnf("Giving up removing %s: %v", dir, err)
			return
		}
		m.sleep(cleanupPause)
	}
}

// attachmentFileName strips any directory part from the declared name.
func attachmentFileName(att dto.InboundAttachment, index int) string {
	name := filepath.Base(strings.ReplaceAll(att.FileName, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return fmt.Sprintf("attachment-%d.%s", index+1, extensionFor(att.ContentType))
	}
	return name
}

func extensionFor(contentType string) string {
	switch utils.ClassifyAttachment(contentType, "") {
	case utils.AttachmentArchive:
		return "zip"
	case utils.AttachmentDocument:
		if strings.Contains(strings.ToLower(contentType), "pdf") {
			return "pdf"
		}
		return "xml"
	default:
		return "bin"
	}
}

// extractionDir is the sibling directory named after the archive.
func extractionDir(dir, archiveName string) string {
	stem := strings.TrimSuffix(archiveName, filepath.Ext(archiveName))
	if stem == archiveName {
		stem += "_extracted"
	}
	return filepath.Join(dir, stem)
}
