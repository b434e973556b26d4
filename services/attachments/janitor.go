package attachments

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
)

// Janitor removes scratch batches older than the retention period.
type Janitor struct {
	materializer *Materializer
	retention    time.Duration
	logger       logger.Logger
	now          func() time.Time
}

func NewJanitor(cfg *config.ProcessingConfig, materializer *Materializer, log logger.Logger) *Janitor {
	return &Janitor{
		materializer: materializer,
		retention:    cfg.ScratchRetention,
		logger:       log,
		now:          time.Now,
	}
}

// Sweep returns the number of batch directories removed.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Janitor.Sweep")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if j.retention <= 0 {
		return 0, nil
	}
	root := j.materializer.Root()
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		j.materializer.Cleanup(filepath.Join(root, entry.Name()))
		removed++
	}
	span.LogFields(log.Int("removed", removed))
	if removed > 0 {
		j.logger.Infof("Removed %d scratch batches older than %s", removed, j.retention)
	}
	return removed, ctx.Err()
}
