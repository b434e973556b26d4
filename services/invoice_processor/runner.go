package invoice_processor

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/interfaces"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/metrics"
	"github.com/customeros/invoicextract/internal/tracing"
	"github.com/customeros/invoicextract/services/mailbox"
)

// Runner drives one processing pass over every active mail account.
type Runner struct {
	accounts interfaces.CredentialsService
	sessions interfaces.MailboxSessionManager
	state    *mailbox.MailboxSessionState
	logger   logger.Logger
	now      func() time.Time
}

func NewRunner(accounts interfaces.CredentialsService, sessions interfaces.MailboxSessionManager, state *mailbox.MailboxSessionState, log logger.Logger) *Runner {
	return &Runner{accounts: accounts, sessions: sessions, state: state, logger: log, now: time.Now}
}

// RunOnce processes all accounts sequentially. It returns ErrRunInProgress
// when another run holds the run flag. Account failures are logged and
// recorded, and do not stop the remaining accounts.
func (r *Runner) RunOnce(ctx context.Context) error {
	if !r.state.TryBeginRun() {
		r.logger.Warnf("Skipping run: previous run still in progress")
		return apperrors.ErrRunInProgress
	}
	defer r.state.EndRun()
	return r.run(ctx)
}

// Start claims the run flag and processes accounts in the background.
func (r *Runner) Start(ctx context.Context) error {
	if !r.state.TryBeginRun() {
		return apperrors.ErrRunInProgress
	}
	go func() {
		defer r.state.EndRun()
		defer tracing.RecoverAndLogToJaeger(r.logger)
		if err := r.run(ctx); err != nil {
			r.logger.Errorf("Triggered run failed: %v", err)
		}
	}()
	return nil
}

func (r *Runner) run(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Runner.run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	started := r.now()
	defer func() {
		metrics.RecordRunDuration(r.now().Sub(started))
	}()

	accounts, err := r.accounts.ActiveAccounts(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		r.logger.Errorf("Could not load mail accounts: %v", err)
		return errors.Wrap(err, "load accounts")
	}
	if len(accounts) == 0 {
		r.logger.Errorf("No active mail account configured")
		return apperrors.ErrNoActiveAccount
	}

	for _, account := range accounts {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.processAccount(ctx, account)
	}
	return nil
}

func (r *Runner) processAccount(ctx context.Context, account dto.MailAccountCredential) {
	started := r.now()
	summary, err := r.sessions.ProcessMailbox(ctx, account)
	if err != nil {
		r.logger.Errorf("Mailbox %s failed: %v", account.Email, err)
		summary = dto.NewRunSummary(account.Email, started)
		summary.Error = err.Error()
	}
	summary.Duration = r.now().Sub(started)
	r.state.RecordRun(summary, r.now())
}
