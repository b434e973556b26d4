package interfaces

import (
	"context"

	"github.com/customeros/invoicextract/dto"
)

// MessageRouter handles every unread message of an open mailbox.
type MessageRouter interface {
	ProcessMailbox(ctx context.Context, client MailboxClient, account dto.MailAccountCredential) (*dto.RunSummary, error)
}

type MailboxSessionManager interface {
	ProcessMailbox(ctx context.Context, account dto.MailAccountCredential) (*dto.RunSummary, error)
}

type CredentialsService interface {
	ActiveAccounts(ctx context.Context) ([]dto.MailAccountCredential, error)
}
