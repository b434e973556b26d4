package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/interfaces"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
)

const (
	inboxFolder   = "INBOX"
	logoutTimeout = 5 * time.Second
)

type connectStage string

const (
	stageDial   connectStage = "dial"
	stageLogin  connectStage = "login"
	stageSelect connectStage = "select"
)

type connectResult struct {
	conn  imapConn
	stage connectStage
	err   error
}

// connectFunc opens, authenticates and selects INBOX. It may block; the
// Dialer bounds it with the connect deadline.
type connectFunc func(addr string, tlsConfig *tls.Config, account dto.MailAccountCredential) (imapConn, connectStage, error)

// Dialer opens implicit-TLS IMAP sessions for mail accounts.
type Dialer struct {
	cfg     *config.MailboxConfig
	logger  logger.Logger
	connect connectFunc
}

func NewDialer(cfg *config.MailboxConfig, log logger.Logger) *Dialer {
	d := &Dialer{cfg: cfg, logger: log}
	d.connect = d.connectIMAP
	return d
}

// Dial connects and logs in within the configured connect timeout.
func (d *Dialer) Dial(ctx context.Context, account dto.MailAccountCredential) (interfaces.MailboxClient, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Dialer.Dial")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAccount(span, account.Email)

	host, port, err := d.cfg.Endpoint(account.Provider)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	span.SetTag("server", addr)

	tlsConfig := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	if d.cfg.InsecureSkipVerify {
		d.logger.Warnf("TLS certificate verification is disabled for %s", addr)
		tlsConfig.InsecureSkipVerify = true
	}

	done := make(chan connectResult, 1)
	go func() {
		conn, stage, err := d.connect(addr, tlsConfig, account)
		done <- connectResult{conn: conn, stage: stage, err: err}
	}()

	deadline := time.NewTimer(d.cfg.ConnectTimeout)
	defer deadline.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			err := classifyConnectError(res.stage, res.err)
			tracing.TraceErr(span, err)
			return nil, errors.Wrapf(err, "%s %s as %s", res.stage, addr, account.Email)
		}
		d.logger.Infof("Connected to %s as %s", addr, account.Email)
		return newSession(res.conn, d.logger), nil
	case <-deadline.C:
		go d.discardLate(done)
		err := apperrors.Mark(errors.Errorf("connect to %s exceeded %s", addr, d.cfg.ConnectTimeout), apperrors.ErrOperationTimeout)
		tracing.TraceErr(span, err)
		return nil, err
	case <-ctx.Done():
		go d.discardLate(done)
		return nil, apperrors.Mark(ctx.Err(), apperrors.ErrOperationTimeout)
	}
}

// discardLate logs out a connection that completed after the deadline.
func (d *Dialer) discardLate(done <-chan connectResult) {
	res := <-done
	if res.err == nil && res.conn != nil {
		d.logger.Warnf("Discarding IMAP connection that completed after the connect deadline")
		_ = res.conn.Logout()
	}
}

func (d *Dialer) connectIMAP(addr string, tlsConfig *tls.Config, account dto.MailAccountCredential) (imapConn, connectStage, error) {
	dialer := &net.Dialer{Timeout: d.cfg.SocketTimeout}
	c, err := client.DialWithDialerTLS(dialer, addr, tlsConfig)
	if err != nil {
		return nil, stageDial, err
	}
	c.Timeout = d.cfg.SocketTimeout

	if err := c.Login(account.Email, account.Password); err != nil {
		_ = c.Logout()
		return nil, stageLogin, err
	}
	if _, err := c.Select(inboxFolder, false); err != nil {
		_ = c.Logout()
		return nil, stageSelect, err
	}
	return c, stageSelect, nil
}

// classifyConnectError marks err with the retry class of the failure.
func classifyConnectError(stage connectStage, err error) error {
	switch {
	case isTimeout(err):
		return apperrors.Mark(err, apperrors.ErrOperationTimeout)
	case isConnectionFailure(err):
		return apperrors.Mark(err, apperrors.ErrNotConnected)
	case stage == stageLogin:
		return apperrors.Mark(err, apperrors.ErrAuthentication)
	case stage == stageDial:
		return apperrors.Mark(err, apperrors.ErrNotConnected)
	default:
		return err
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return strings.Contains(err.Error(), "connection closed")
}
