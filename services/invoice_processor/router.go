package invoice_processor

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/interfaces"
	"github.com/customeros/invoicextract/internal/enum"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/metrics"
	"github.com/customeros/invoicextract/internal/tracing"
)

// MessageProcessor runs the document pipeline for one message.
type MessageProcessor interface {
	Process(ctx context.Context, msg *dto.InboundMessage) (*dto.ProcessingResult, error)
}

// Router classifies every unread INBOX message and moves it to its outcome folder.
type Router struct {
	cfg       *config.MailboxConfig
	processor MessageProcessor
	logger    logger.Logger
	now       func() time.Time
}

func NewRouter(cfg *config.MailboxConfig, processor MessageProcessor, log logger.Logger) *Router {
	return &Router{cfg: cfg, processor: processor, logger: log, now: time.Now}
}

// ProcessMailbox returns an error only for session-level failures, which
// the session manager retries. Per-message failures are routed and counted.
func (r *Router) ProcessMailbox(ctx context.Context, client interfaces.MailboxClient, account dto.MailAccountCredential) (*dto.RunSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Router.ProcessMailbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)

	summary := dto.NewRunSummary(account.Email, r.now())

	for _, folder := range r.cfg.Folders() {
		if err := client.EnsureFolder(ctx, folder); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	uids, err := client.SearchUnseen(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if len(uids) == 0 {
		r.logger.Infof("No unread messages for %s", account.Email)
		summary.Duration = r.now().Sub(summary.StartedAt)
		return summary, nil
	}
	r.logger.Infof("Found %d unread messages for %s", len(uids), account.Email)

	for _, uid := range uids {
		outcome := r.routeMessage(ctx, client, uid)
		summary.Add(outcome)
		metrics.RecordMessage(outcome.String())
	}

	summary.Duration = r.now().Sub(summary.StartedAt)
	r.logger.Infof("Finished %s: %v", account.Email, summary.Outcomes)
	return summary, nil
}

// routeMessage never lets one message's failure escape.
func (r *Router) routeMessage(ctx context.Context, client interfaces.MailboxClient, uid uint32) (outcome enum.Outcome) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Router.routeMessage")
	defer span.Finish()
	span.SetTag("uid", uid)

	defer func() {
		if rec := recover(); rec != nil {
			err := errors.Errorf("panic processing uid %d: %v", uid, rec)
			tracing.TraceErr(span, err)
			outcome = r.routeToError(ctx, client, uid, err)
		}
	}()

	msg, err := client.FetchMessage(ctx, uid)
	if err != nil {
		tracing.TraceErr(span, err)
		return r.routeToError(ctx, client, uid, err)
	}

	if !msg.HasAttachments() {
		r.logger.Infof("Message %d %q has no attachments", uid, msg.Subject)
		if err := r.markAndMove(ctx, client, uid, enum.OutcomeNoAttachment); err != nil {
			return r.routeToError(ctx, client, uid, err)
		}
		return enum.OutcomeNoAttachment
	}

	if _, err := r.processor.Process(ctx, msg); err != nil {
		tracing.TraceErr(span, err)
		return r.routeToError(ctx, client, uid, err)
	}

	if err := r.markAndMove(ctx, client, uid, enum.OutcomeProcessed); err != nil {
		tracing.TraceErr(span, err)
		return r.routeToError(ctx, client, uid, err)
	}
	r.logger.Infof("Processed message %d %q with %d attachments", uid, msg.Subject, len(msg.Attachments))
	return enum.OutcomeProcessed
}

func (r *Router) markAndMove(ctx context.Context, client interfaces.MailboxClient, uid uint32, outcome enum.Outcome) error {
	if err := client.MarkSeen(ctx, uid); err != nil {
		return err
	}
	return client.Move(ctx, uid, r.cfg.FolderFor(outcome))
}

// routeToError logs err and moves the message to the error folder once.
func (r *Router) routeToError(ctx context.Context, client interfaces.MailboxClient, uid uint32, err error) enum.Outcome {
	r.logger.Errorf("Error processing message %d: %v", uid, err)
	folder := r.cfg.FolderFor(enum.OutcomeError)
	if moveErr := r.safeMove(ctx, client, uid, folder); moveErr != nil {
		r.logger.Errorf("Could not move message %d to %s: %v", uid, folder, moveErr)
	}
	return enum.OutcomeError
}

func (r *Router) safeMove(ctx context.Context, client interfaces.MailboxClient, uid uint32, folder string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("panic moving uid %d: %v", uid, rec)
		}
	}()
	return client.Move(ctx, uid, folder)
}
