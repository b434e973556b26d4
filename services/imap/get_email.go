package imap

import (
	"bytes"
	"context"
	"io"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/dto"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/tracing"
)

// FetchMessage downloads the full message without setting \Seen and
// decodes its attachments.
func (s *Session) FetchMessage(ctx context.Context, uid uint32) (*dto.InboundMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Session.FetchMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("uid", uid)

	raw, err := s.fetchRaw(uid)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, apperrors.Mark(err, apperrors.ErrMessageFetch)
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, apperrors.Mark(errors.Wrapf(err, "parse uid %d", uid), apperrors.ErrMessageFetch)
	}

	msg := &dto.InboundMessage{
		UID:     uid,
		Subject: env.GetHeader("Subject"),
	}
	for _, part := range env.Attachments {
		msg.Attachments = append(msg.Attachments, toAttachment(part))
	}
	for _, part := range env.Inlines {
		if part.FileName != "" {
			msg.Attachments = append(msg.Attachments, toAttachment(part))
		}
	}
	span.SetTag("attachments", len(msg.Attachments))
	return msg, nil
}

func toAttachment(part *enmime.Part) dto.InboundAttachment {
	return dto.InboundAttachment{
		FileName:    part.FileName,
		ContentType: part.ContentType,
		Content:     part.Content,
	}
}

func (s *Session) fetchRaw(uid uint32) ([]byte, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.conn.UidFetch(seqSet, items, messages)
	}()

	var body imap.Literal
	for m := range messages {
		if m == nil || body != nil {
			continue
		}
		body = m.GetBody(section)
	}
	if err := <-done; err != nil {
		return nil, errors.Wrapf(err, "fetch uid %d", uid)
	}
	if body == nil {
		return nil, errors.Errorf("uid %d returned no body", uid)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(err, "read uid %d", uid)
	}
	return raw, nil
}
