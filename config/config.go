package config

import (
	"fmt"
	"time"

	"github.com/customeros/invoicextract/internal/enum"
	"github.com/customeros/invoicextract/internal/errors"
)

type AppConfig struct {
	APIPort string `env:"PORT" envDefault:"12223"`
	APIKey  string `env:"API_KEY"`
}

type MailboxConfig struct {
	GmailHost   string `env:"MAILBOX_GMAIL_HOST" envDefault:"imap.gmail.com"`
	OutlookHost string `env:"MAILBOX_OUTLOOK_HOST" envDefault:"outlook.office365.com"`
	Port        int    `env:"MAILBOX_PORT" envDefault:"993"`

	ProcessedFolder    string `env:"MAILBOX_FOLDER_PROCESSED" envDefault:"Processed"`
	ErrorFolder        string `env:"MAILBOX_FOLDER_ERROR" envDefault:"ProcessedError"`
	NoAttachmentFolder string `env:"MAILBOX_FOLDER_NO_ATTACHMENT" envDefault:"ProcessedNoAttachment"`

	ConnectTimeout time.Duration `env:"MAILBOX_CONNECT_TIMEOUT" envDefault:"20s"`
	SocketTimeout  time.Duration `env:"MAILBOX_SOCKET_TIMEOUT" envDefault:"15s"`
	MaxAttempts    int           `env:"MAILBOX_MAX_ATTEMPTS" envDefault:"3"`

	AuthBackoff         time.Duration `env:"MAILBOX_BACKOFF_AUTH" envDefault:"5m"`
	TimeoutBackoff      time.Duration `env:"MAILBOX_BACKOFF_TIMEOUT" envDefault:"2m"`
	NotConnectedBackoff time.Duration `env:"MAILBOX_BACKOFF_NOT_CONNECTED" envDefault:"1m"`
	OtherBackoff        time.Duration `env:"MAILBOX_BACKOFF_OTHER" envDefault:"1m"`

	// InsecureSkipVerify disables server certificate checks. Off unless set explicitly.
	InsecureSkipVerify bool `env:"MAILBOX_INSECURE_SKIP_VERIFY" envDefault:"false"`
}

// Endpoint resolves the implicit-TLS address for a provider.
func (c *MailboxConfig) Endpoint(provider enum.MailProvider) (string, int, error) {
	switch provider {
	case enum.ProviderGmail:
		return c.GmailHost, c.Port, nil
	case enum.ProviderOutlook:
		return c.OutlookHost, c.Port, nil
	default:
		return "", 0, fmt.Errorf("%w: %q", errors.ErrUnsupportedProvider, provider)
	}
}

func (c *MailboxConfig) Folders() []string {
	return []string{c.ProcessedFolder, c.ErrorFolder, c.NoAttachmentFolder}
}

// FolderFor maps a routing outcome to its mailbox folder.
func (c *MailboxConfig) FolderFor(outcome enum.Outcome) string {
	switch outcome {
	case enum.OutcomeError:
		return c.ErrorFolder
	case enum.OutcomeNoAttachment:
		return c.NoAttachmentFolder
	default:
		return c.ProcessedFolder
	}
}

type ProcessingConfig struct {
	DownloadDir string `env:"PROCESSING_DOWNLOAD_DIR" envDefault:"/tmp/invoicextract"`
	// BlockIncompleteDocuments skips submission of documents missing required header fields.
	BlockIncompleteDocuments bool          `env:"PROCESSING_BLOCK_INCOMPLETE" envDefault:"false"`
	DeleteBatchOnSuccess     bool          `env:"PROCESSING_DELETE_BATCH_ON_SUCCESS" envDefault:"false"`
	ScratchRetention         time.Duration `env:"PROCESSING_SCRATCH_RETENTION" envDefault:"24h"`
}

type StorageConfig struct {
	Provider        string `env:"STORAGE_PROVIDER" envDefault:"s3"` // s3 or r2
	Region          string `env:"STORAGE_REGION" envDefault:"us-east-2"`
	AccountID       string `env:"STORAGE_R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"STORAGE_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"STORAGE_ACCESS_KEY_SECRET"`
	Bucket          string `env:"STORAGE_BUCKET" envDefault:"bk-invoicextract"`
	PublicBaseURL   string `env:"STORAGE_PUBLIC_BASE_URL"`
	KeyPrefix       string `env:"STORAGE_KEY_PREFIX" envDefault:"invoices"`
	IsPublic        bool   `env:"STORAGE_PUBLIC_READ" envDefault:"false"`
}

type BackendConfig struct {
	TokenURL     string        `env:"BACKEND_TOKEN_URL"`
	InvoiceURL   string        `env:"BACKEND_INVOICE_URL"`
	ClientID     string        `env:"BACKEND_CLIENT_ID"`
	ClientSecret string        `env:"BACKEND_CLIENT_SECRET"`
	Timeout      time.Duration `env:"BACKEND_HTTP_TIMEOUT" envDefault:"60s"`
}

type CredentialsServiceConfig struct {
	AccountsURL string `env:"CREDENTIALS_ACCOUNTS_URL"`
}
