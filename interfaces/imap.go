package interfaces

import (
	"context"

	"github.com/customeros/invoicextract/dto"
)

// MailboxClient is an open, authenticated mailbox session.
type MailboxClient interface {
	EnsureFolder(ctx context.Context, name string) error
	SearchUnseen(ctx context.Context) ([]uint32, error)
	FetchMessage(ctx context.Context, uid uint32) (*dto.InboundMessage, error)
	MarkSeen(ctx context.Context, uid uint32) error
	Move(ctx context.Context, uid uint32, folder string) error
	Logout() error
}

type MailboxDialer interface {
	// Dial connects and authenticates within the configured deadline.
	Dial(ctx context.Context, account dto.MailAccountCredential) (MailboxClient, error)
}
