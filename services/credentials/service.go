package credentials

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/internal/enum"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
)

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type accountResponse struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Key      string `json:"key"`
}

// Service reads the active mail account from the upstream configuration API.
type Service struct {
	accountsURL string
	tokens      TokenSource
	httpClient  *http.Client
	logger      logger.Logger
}

func NewService(cfg *config.CredentialsServiceConfig, tokens TokenSource, httpClient *http.Client, log logger.Logger) *Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Service{
		accountsURL: cfg.AccountsURL,
		tokens:      tokens,
		httpClient:  httpClient,
		logger:      log,
	}
}

// ActiveAccounts returns the decrypted active account. A 404 from upstream
// means no account is configured and yields an empty list.
func (s *Service) ActiveAccounts(ctx context.Context) ([]dto.MailAccountCredential, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "CredentialsService.ActiveAccounts")
	defer span.Finish()
	tracing.SetDefaultExternalClientSpanTags(ctx, span)

	accounts, err := s.activeAccounts(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogFields(log.Int("accounts", len(accounts)))
	return accounts, nil
}

func (s *Service) activeAccounts(ctx context.Context) ([]dto.MailAccountCredential, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.accountsURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "get active account")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []dto.MailAccountCredential{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Errorf("get active account: status %d: %s", resp.StatusCode, body)
	}

	var payload accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode active account")
	}

	password, err := Decrypt(payload.Password, payload.Key)
	if err != nil {
		return nil, errors.Wrapf(err, "account %s", payload.Username)
	}

	return []dto.MailAccountCredential{{
		Email:    payload.Username,
		Password: password,
		Provider: enum.ProviderFromAddress(payload.Username),
	}}, nil
}
