package imap

import (
	"context"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
)

// imapConn is the subset of *client.Client a session drives.
type imapConn interface {
	List(ref, name string, ch chan *imap.MailboxInfo) error
	Create(name string) error
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	UidStore(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	UidMove(seqset *imap.SeqSet, dest string) error
	Logout() error
}

// Session is an authenticated IMAP session with INBOX selected.
type Session struct {
	conn   imapConn
	logger logger.Logger
}

func newSession(conn imapConn, log logger.Logger) *Session {
	return &Session{conn: conn, logger: log}
}

// EnsureFolder creates the folder unless it already exists.
func (s *Session) EnsureFolder(ctx context.Context, name string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Session.EnsureFolder")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder", name)

	exists, err := s.folderExists(name)
	if err != nil {
		tracing.TraceErr(span, err)
		return apperrors.Mark(errors.Wrapf(err, "list folder %s", name), apperrors.ErrFolderUnavailable)
	}
	if exists {
		return nil
	}

	if err := s.conn.Create(name); err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		tracing.TraceErr(span, err)
		return apperrors.Mark(errors.Wrapf(err, "create folder %s", name), apperrors.ErrFolderUnavailable)
	}
	s.logger.Infof("Created folder %s", name)
	return nil
}

func (s *Session) folderExists(name string) (bool, error) {
	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- s.conn.List("", name, mailboxes)
	}()

	found := false
	for m := range mailboxes {
		if strings.EqualFold(m.Name, name) {
			found = true
		}
	}
	if err := <-done; err != nil {
		return false, err
	}
	return found, nil
}

func isAlreadyExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "alreadyexists") || strings.Contains(msg, "already exists")
}

// SearchUnseen returns the UIDs of INBOX messages without the \Seen flag.
func (s *Session) SearchUnseen(ctx context.Context) ([]uint32, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Session.SearchUnseen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := s.conn.UidSearch(criteria)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "search unseen")
	}
	span.SetTag("count", len(uids))
	return uids, nil
}

// MarkSeen adds the \Seen flag to the message.
func (s *Session) MarkSeen(ctx context.Context, uid uint32) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Session.MarkSeen")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("uid", uid)

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := s.conn.UidStore(seqSet, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "mark uid %d seen", uid)
	}
	return nil
}

// Move relocates the message to folder.
func (s *Session) Move(ctx context.Context, uid uint32, folder string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Session.Move")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("uid", uid)
	span.SetTag("folder", folder)

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	if err := s.conn.UidMove(seqSet, folder); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrapf(err, "move uid %d to %s", uid, folder)
	}
	return nil
}

// Logout ends the session, giving up after a few seconds.
func (s *Session) Logout() error {
	done := make(chan error, 1)
	go func() {
		done <- s.conn.Logout()
	}()

	select {
	case err := <-done:
		if err != nil && !strings.Contains(err.Error(), "already logged out") {
			s.logger.Warnf("Error during IMAP logout: %v", err)
			return err
		}
		return nil
	case <-time.After(logoutTimeout):
		s.logger.Warnf("IMAP logout timed out after %s", logoutTimeout)
		return apperrors.Mark(errors.New("logout timed out"), apperrors.ErrOperationTimeout)
	}
}
