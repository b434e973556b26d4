package imap

import (
	"bytes"
	"context"
	"crypto/tls"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/internal/enum"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
)

type fakeConn struct {
	mu        sync.Mutex
	folders   []string
	createErr error
	created   []string
	uids      []uint32
	criteria  *imap.SearchCriteria
	raw       map[uint32]string
	fetchErr  error
	stored    []uint32
	storeItem imap.StoreItem
	moved     map[uint32]string
	loggedOut bool
}

func (f *fakeConn) List(_, name string, ch chan *imap.MailboxInfo) error {
	defer close(ch)
	for _, folder := range f.folders {
		if folder == name {
			ch <- &imap.MailboxInfo{Name: folder}
		}
	}
	return nil
}

func (f *fakeConn) Create(name string) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, name)
	return nil
}

func (f *fakeConn) UidSearch(criteria *imap.SearchCriteria) ([]uint32, error) {
	f.criteria = criteria
	return f.uids, nil
}

func (f *fakeConn) UidFetch(seqset *imap.SeqSet, _ []imap.FetchItem, ch chan *imap.Message) error {
	defer close(ch)
	if f.fetchErr != nil {
		return f.fetchErr
	}
	for _, uid := range f.uids {
		if !seqset.Contains(uid) {
			continue
		}
		raw, ok := f.raw[uid]
		if !ok {
			continue
		}
		msg := imap.NewMessage(1, nil)
		msg.Uid = uid
		msg.Body[&imap.BodySectionName{}] = bytes.NewBufferString(raw)
		ch <- msg
	}
	return nil
}

func (f *fakeConn) UidStore(seqset *imap.SeqSet, item imap.StoreItem, _ interface{}, _ chan *imap.Message) error {
	f.storeItem = item
	for _, uid := range f.uids {
		if seqset.Contains(uid) {
			f.stored = append(f.stored, uid)
		}
	}
	return nil
}

func (f *fakeConn) UidMove(seqset *imap.SeqSet, dest string) error {
	if f.moved == nil {
		f.moved = map[uint32]string{}
	}
	for _, uid := range f.uids {
		if seqset.Contains(uid) {
			f.moved[uid] = dest
		}
	}
	return nil
}

func (f *fakeConn) Logout() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = true
	return nil
}

func (f *fakeConn) isLoggedOut() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loggedOut
}

func testLogger() logger.Logger {
	return logger.NewFromZap(zap.NewNop())
}

const invoiceMail = "From: billing@supplier.example\r\n" +
	"To: facturas@gmail.com\r\n" +
	"Subject: Factura FE-1001\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Adjuntamos la factura.\r\n" +
	"--b1\r\n" +
	"Content-Type: application/xml; name=\"FE-1001.xml\"\r\n" +
	"Content-Disposition: attachment; filename=\"FE-1001.xml\"\r\n" +
	"\r\n" +
	"<Invoice/>\r\n" +
	"--b1--\r\n"

func TestSession_EnsureFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("existing folder is left alone", func(t *testing.T) {
		conn := &fakeConn{folders: []string{"Processed"}}
		require.NoError(t, newSession(conn, testLogger()).EnsureFolder(ctx, "Processed"))
		assert.Empty(t, conn.created)
	})

	t.Run("missing folder is created", func(t *testing.T) {
		conn := &fakeConn{}
		require.NoError(t, newSession(conn, testLogger()).EnsureFolder(ctx, "ProcessedError"))
		assert.Equal(t, []string{"ProcessedError"}, conn.created)
	})

	t.Run("already exists on create counts as success", func(t *testing.T) {
		conn := &fakeConn{createErr: errors.New("[ALREADYEXISTS] Mailbox exists")}
		assert.NoError(t, newSession(conn, testLogger()).EnsureFolder(ctx, "Processed"))
	})

	t.Run("create failure is folder unavailable", func(t *testing.T) {
		conn := &fakeConn{createErr: errors.New("NO quota exceeded")}
		err := newSession(conn, testLogger()).EnsureFolder(ctx, "Processed")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrFolderUnavailable))
	})
}

func TestSession_SearchUnseen(t *testing.T) {
	conn := &fakeConn{uids: []uint32{4, 9}}
	uids, err := newSession(conn, testLogger()).SearchUnseen(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []uint32{4, 9}, uids)
	assert.Equal(t, []string{imap.SeenFlag}, conn.criteria.WithoutFlags)
}

func TestSession_MarkSeenAndMove(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConn{uids: []uint32{4, 9}}
	s := newSession(conn, testLogger())

	require.NoError(t, s.MarkSeen(ctx, 9))
	require.NoError(t, s.Move(ctx, 9, "Processed"))

	assert.Equal(t, []uint32{9}, conn.stored)
	assert.Equal(t, imap.FormatFlagsOp(imap.AddFlags, true), conn.storeItem)
	assert.Equal(t, map[uint32]string{9: "Processed"}, conn.moved)
}

func TestSession_FetchMessage(t *testing.T) {
	conn := &fakeConn{uids: []uint32{7}, raw: map[uint32]string{7: invoiceMail}}

	msg, err := newSession(conn, testLogger()).FetchMessage(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, uint32(7), msg.UID)
	assert.Equal(t, "Factura FE-1001", msg.Subject)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "FE-1001.xml", msg.Attachments[0].FileName)
	assert.Equal(t, "application/xml", msg.Attachments[0].ContentType)
	assert.Equal(t, "<Invoice/>", strings.TrimSpace(string(msg.Attachments[0].Content)))
	assert.True(t, msg.HasAttachments())
}

func TestSession_FetchMessage_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch error", func(t *testing.T) {
		conn := &fakeConn{uids: []uint32{7}, fetchErr: errors.New("connection reset")}
		_, err := newSession(conn, testLogger()).FetchMessage(ctx, 7)
		assert.True(t, errors.Is(err, apperrors.ErrMessageFetch))
	})

	t.Run("no body", func(t *testing.T) {
		conn := &fakeConn{uids: []uint32{7}}
		_, err := newSession(conn, testLogger()).FetchMessage(ctx, 7)
		assert.True(t, errors.Is(err, apperrors.ErrMessageFetch))
	})
}

func TestSession_Logout(t *testing.T) {
	conn := &fakeConn{}
	require.NoError(t, newSession(conn, testLogger()).Logout())
	assert.True(t, conn.isLoggedOut())
}

func testMailboxConfig() *config.MailboxConfig {
	return &config.MailboxConfig{
		GmailHost:      "imap.gmail.com",
		OutlookHost:    "outlook.office365.com",
		Port:           993,
		ConnectTimeout: time.Second,
		SocketTimeout:  time.Second,
	}
}

func TestDialer_Dial(t *testing.T) {
	account := dto.MailAccountCredential{Email: "facturas@gmail.com", Password: "secret", Provider: enum.ProviderGmail}

	t.Run("connects to the provider endpoint", func(t *testing.T) {
		conn := &fakeConn{}
		d := NewDialer(testMailboxConfig(), testLogger())
		var gotAddr string
		var gotServerName string
		d.connect = func(addr string, tlsConfig *tls.Config, _ dto.MailAccountCredential) (imapConn, connectStage, error) {
			gotAddr = addr
			gotServerName = tlsConfig.ServerName
			return conn, stageSelect, nil
		}

		client, err := d.Dial(context.Background(), account)

		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, "imap.gmail.com:993", gotAddr)
		assert.Equal(t, "imap.gmail.com", gotServerName)
	})

	t.Run("login rejection is an authentication failure", func(t *testing.T) {
		d := NewDialer(testMailboxConfig(), testLogger())
		d.connect = func(string, *tls.Config, dto.MailAccountCredential) (imapConn, connectStage, error) {
			return nil, stageLogin, errors.New("[AUTHENTICATIONFAILED] Invalid credentials")
		}

		_, err := d.Dial(context.Background(), account)
		assert.Equal(t, apperrors.KindAuthentication, apperrors.KindOf(err))
	})

	t.Run("refused dial is not connected", func(t *testing.T) {
		d := NewDialer(testMailboxConfig(), testLogger())
		d.connect = func(string, *tls.Config, dto.MailAccountCredential) (imapConn, connectStage, error) {
			return nil, stageDial, errors.New("dial tcp: connection refused")
		}

		_, err := d.Dial(context.Background(), account)
		assert.Equal(t, apperrors.KindNotConnected, apperrors.KindOf(err))
	})

	t.Run("slow connect times out and late session is closed", func(t *testing.T) {
		cfg := testMailboxConfig()
		cfg.ConnectTimeout = 20 * time.Millisecond
		release := make(chan struct{})
		conn := &fakeConn{}
		d := NewDialer(cfg, testLogger())
		d.connect = func(string, *tls.Config, dto.MailAccountCredential) (imapConn, connectStage, error) {
			<-release
			return conn, stageSelect, nil
		}

		_, err := d.Dial(context.Background(), account)
		assert.Equal(t, apperrors.KindTimeout, apperrors.KindOf(err))

		close(release)
		assert.Eventually(t, conn.isLoggedOut, time.Second, 5*time.Millisecond)
	})

	t.Run("unknown provider is rejected before dialing", func(t *testing.T) {
		d := NewDialer(testMailboxConfig(), testLogger())
		d.connect = func(string, *tls.Config, dto.MailAccountCredential) (imapConn, connectStage, error) {
			t.Fatal("connect must not be called")
			return nil, stageDial, nil
		}

		_, err := d.Dial(context.Background(), dto.MailAccountCredential{Email: "x@y.z", Provider: "yahoo"})
		assert.Equal(t, apperrors.KindUnsupportedProvider, apperrors.KindOf(err))
	})
}
