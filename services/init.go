package services

import (
	"net/http"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/interfaces"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/services/attachments"
	"github.com/customeros/invoicextract/services/auth"
	"github.com/customeros/invoicextract/services/backend"
	"github.com/customeros/invoicextract/services/credentials"
	"github.com/customeros/invoicextract/services/imap"
	"github.com/customeros/invoicextract/services/invoice_processor"
	"github.com/customeros/invoicextract/services/mailbox"
	"github.com/customeros/invoicextract/services/storage"
	"github.com/customeros/invoicextract/services/ubl"
)

type Services struct {
	SessionState       *mailbox.MailboxSessionState
	StorageService     interfaces.StorageService
	CredentialsService interfaces.CredentialsService
	SessionManager     interfaces.MailboxSessionManager
	Materializer       *attachments.Materializer
	Janitor            *attachments.Janitor
	Runner             *invoice_processor.Runner
}

func InitServices(cfg *config.Config, log logger.Logger) (*Services, error) {
	httpClient := &http.Client{Timeout: cfg.BackendConfig.Timeout}
	tokens := auth.NewTokenFetcher(cfg.BackendConfig.TokenURL, cfg.BackendConfig.ClientID, cfg.BackendConfig.ClientSecret, httpClient)

	storageService, err := storage.NewStorageServiceFromConfig(cfg.StorageConfig)
	if err != nil {
		return nil, err
	}

	materializer := attachments.NewMaterializer(cfg.ProcessingConfig, log)
	pipeline := invoice_processor.NewPipeline(
		cfg.ProcessingConfig,
		cfg.StorageConfig.KeyPrefix,
		materializer,
		ubl.NewParser(log),
		storage.NewPublisher(storageService, log),
		backend.NewClient(cfg.BackendConfig, tokens, httpClient, log),
		log,
	)

	state := mailbox.NewMailboxSessionState()
	sessions := mailbox.NewSessionManager(
		cfg.MailboxConfig,
		imap.NewDialer(cfg.MailboxConfig, log),
		invoice_processor.NewRouter(cfg.MailboxConfig, pipeline, log),
		state,
		log,
	)
	credentialsService := credentials.NewService(cfg.CredentialsService, tokens, httpClient, log)

	return &Services{
		SessionState:       state,
		StorageService:     storageService,
		CredentialsService: credentialsService,
		SessionManager:     sessions,
		Materializer:       materializer,
		Janitor:            attachments.NewJanitor(cfg.ProcessingConfig, materializer, log),
		Runner:             invoice_processor.NewRunner(credentialsService, sessions, state, log),
	}, nil
}
