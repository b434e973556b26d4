package mailbox

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/interfaces"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/metrics"
	"github.com/customeros/invoicextract/internal/tracing"
)

// SessionManager opens one mailbox session at a time and retries failed
// sessions with a backoff chosen by failure kind.
type SessionManager struct {
	cfg    *config.MailboxConfig
	dialer interfaces.MailboxDialer
	router interfaces.MessageRouter
	state  *MailboxSessionState
	logger logger.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewSessionManager(cfg *config.MailboxConfig, dialer interfaces.MailboxDialer, router interfaces.MessageRouter, state *MailboxSessionState, log logger.Logger) *SessionManager {
	return &SessionManager{
		cfg:    cfg,
		dialer: dialer,
		router: router,
		state:  state,
		logger: log,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ProcessMailbox runs the router over the account's INBOX, retrying up to
// MaxAttempts times.
func (m *SessionManager) ProcessMailbox(ctx context.Context, account dto.MailAccountCredential) (*dto.RunSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SessionManager.ProcessMailbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)

	m.state.gate.Lock()
	defer m.state.gate.Unlock()
	m.state.beginSession(account.Email)

	maxAttempts := m.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		summary, err := m.attempt(ctx, account)
		if err == nil {
			m.state.recordSuccess(attempt)
			metrics.RecordMailboxAttempt("success")
			return summary, nil
		}
		lastErr = err

		kind := apperrors.KindOf(err)
		metrics.RecordMailboxAttempt(kind.String())

		if kind == apperrors.KindUnsupportedProvider {
			m.state.recordFailure(attempt, err, time.Time{})
			m.logger.Errorf("Mailbox %s uses an unsupported provider: %v", account.Email, err)
			tracing.TraceErr(span, err)
			return nil, err
		}

		if attempt == maxAttempts {
			m.state.recordFailure(attempt, err, time.Time{})
			break
		}

		backoff := m.backoffFor(kind)
		m.state.recordFailure(attempt, err, m.now().Add(backoff))
		m.logger.Warnf("Mailbox %s attempt %d/%d failed (%s), retrying in %s: %v",
			account.Email, attempt, maxAttempts, kind, backoff, err)

		if err := m.sleep(ctx, backoff); err != nil {
			lastErr = errors.Wrap(err, "backoff interrupted")
			tracing.TraceErr(span, lastErr)
			m.logger.Warnf("Mailbox %s retry cancelled: %v", account.Email, err)
			return nil, lastErr
		}
	}

	err := apperrors.Mark(errors.Wrapf(lastErr, "mailbox %s failed after %d attempts", account.Email, maxAttempts), apperrors.ErrNotConnected)
	tracing.TraceErr(span, err)
	m.logger.Errorf("Giving up on mailbox %s: %v", account.Email, err)
	return nil, err
}

// attempt runs one session. The client is always logged out.
func (m *SessionManager) attempt(ctx context.Context, account dto.MailAccountCredential) (*dto.RunSummary, error) {
	client, err := m.dialer.Dial(ctx, account)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := client.Logout(); err != nil {
			m.logger.Warnf("Logout from %s failed: %v", account.Email, err)
		}
	}()

	return m.router.ProcessMailbox(ctx, client, account)
}

func (m *SessionManager) backoffFor(kind apperrors.Kind) time.Duration {
	switch kind {
	case apperrors.KindAuthentication:
		return m.cfg.AuthBackoff
	case apperrors.KindTimeout:
		return m.cfg.TimeoutBackoff
	case apperrors.KindNotConnected:
		return m.cfg.NotConnectedBackoff
	default:
		return m.cfg.OtherBackoff
	}
}
