package auth

import (
	"context"
	"net/http"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/customeros/invoicextract/internal/tracing"
)

// TokenFetcher obtains client-credentials bearer tokens. Tokens are not
// cached: every call performs a new grant.
type TokenFetcher struct {
	config     clientcredentials.Config
	httpClient *http.Client
}

func NewTokenFetcher(tokenURL, clientID, clientSecret string, httpClient *http.Client) *TokenFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &TokenFetcher{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
	}
}

func (f *TokenFetcher) Token(ctx context.Context) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "TokenFetcher.Token")
	defer span.Finish()
	tracing.SetDefaultExternalClientSpanTags(ctx, span)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	token, err := f.config.Token(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "client credentials grant")
	}
	return token.AccessToken, nil
}
