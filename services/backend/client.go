package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/dto"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/metrics"
	"github.com/customeros/invoicextract/internal/tracing"
)

const maxErrorBody = 64 << 10

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client posts extracted invoices to the backend invoice endpoint.
type Client struct {
	invoiceURL string
	tokens     TokenSource
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg *config.BackendConfig, tokens TokenSource, httpClient *http.Client, log logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		invoiceURL: cfg.InvoiceURL,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     log,
	}
}

// Submit never returns an error: failures are logged and reported as a
// rejected result.
func (c *Client) Submit(ctx context.Context, doc *dto.InvoiceDocument) dto.SubmissionResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "BackendClient.Submit")
	defer span.Finish()
	tracing.SetDefaultExternalClientSpanTags(ctx, span)
	span.LogFields(log.String("documentNumber", doc.DocumentNumber))

	result, err := c.submit(ctx, doc)
	metrics.RecordSubmission(result.Accepted)
	if err != nil {
		tracing.TraceErr(span, err)
		c.logger.Errorf("Failed to submit invoice %s: %v", doc.DocumentNumber, err)
		return result
	}
	c.logger.Infof("Invoice %s submitted", doc.DocumentNumber)
	return result
}

func (c *Client) submit(ctx context.Context, doc *dto.InvoiceDocument) (dto.SubmissionResult, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return dto.SubmissionResult{Detail: err.Error()}, err
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return dto.SubmissionResult{Detail: err.Error()}, errors.Wrap(err, "marshal invoice")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.invoiceURL, bytes.NewReader(body))
	if err != nil {
		return dto.SubmissionResult{Detail: err.Error()}, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dto.SubmissionResult{Detail: err.Error()}, errors.Wrap(err, "post invoice")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	result := dto.SubmissionResult{StatusCode: resp.StatusCode, Detail: string(respBody)}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("%w: status %d: %s", apperrors.ErrSubmissionRejected, resp.StatusCode, respBody)
	}
	result.Accepted = true
	return result, nil
}
