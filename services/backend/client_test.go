package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/services/auth"
)

type staticToken struct {
	token string
	err   error
}

func (s staticToken) Token(context.Context) (string, error) {
	return s.token, s.err
}

func testDocument() *dto.InvoiceDocument {
	doc := dto.NewInvoiceDocument()
	doc.DocumentNumber = "FE-1"
	doc.DocumentType = "FACTURA"
	doc.IssueDate = dto.NewDate(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	return doc
}

func newClient(url string, tokens TokenSource, httpClient *http.Client) (*Client, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	cfg := &config.BackendConfig{InvoiceURL: url, Timeout: 5 * time.Second}
	return NewClient(cfg, tokens, httpClient, logger.NewFromZap(zap.New(core))), logs
}

func TestSubmit_Accepted(t *testing.T) {
	var got map[string]interface{}
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, _ := newClient(srv.URL, staticToken{token: "tok-1"}, srv.Client())
	result := c.Submit(context.Background(), testDocument())

	assert.True(t, result.Accepted)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "Bearer tok-1", authHeader)
	assert.Equal(t, "FE-1", got["DocumentNumber"])
	assert.Equal(t, "FACTURA", got["DocumentType"])
	assert.Equal(t, "2024-02-01T00:00:00", got["IssueDate"])
}

func TestSubmit_RejectedStatusLogsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate invoice", http.StatusConflict)
	}))
	defer srv.Close()

	c, logs := newClient(srv.URL, staticToken{token: "tok"}, srv.Client())
	result := c.Submit(context.Background(), testDocument())

	assert.False(t, result.Accepted)
	assert.Equal(t, http.StatusConflict, result.StatusCode)
	assert.Contains(t, result.Detail, "duplicate invoice")
	require.Equal(t, 1, logs.FilterMessageSnippet("duplicate invoice").Len())
}

func TestSubmit_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := newClient(url, staticToken{token: "tok"}, nil)
	result := c.Submit(context.Background(), testDocument())

	assert.False(t, result.Accepted)
	assert.Zero(t, result.StatusCode)
	assert.NotEmpty(t, result.Detail)
}

func TestSubmit_TokenFailure(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	c, _ := newClient(srv.URL, staticToken{err: errors.New("invalid_client")}, srv.Client())
	result := c.Submit(context.Background(), testDocument())

	assert.False(t, result.Accepted)
	assert.False(t, called)
}

func TestSubmit_FreshTokenPerCall(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/invoices", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tokens := auth.NewTokenFetcher(srv.URL+"/oauth/token", "id", "secret", srv.Client())
	c, _ := newClient(srv.URL+"/invoices", tokens, srv.Client())

	assert.True(t, c.Submit(context.Background(), testDocument()).Accepted)
	assert.True(t, c.Submit(context.Background(), testDocument()).Accepted)
	assert.Equal(t, 2, tokenCalls)
}
