package credentials

import (
	"context"
	"crypto/aes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/customeros/invoicextract/config"
	"github.com/customeros/invoicextract/internal/enum"
	apperrors "github.com/customeros/invoicextract/internal/errors"
	"github.com/customeros/invoicextract/internal/logger"
)

const testKey = "0123456789abcdef0123456789abcdef"

// encryptECB is the inverse of Decrypt, used to build fixtures.
func encryptECB(t *testing.T, plaintext, key string) string {
	t.Helper()
	block, err := aes.NewCipher([]byte(key))
	require.NoError(t, err)
	size := block.BlockSize()
	pad := size - len(plaintext)%size
	data := []byte(plaintext)
	for i := 0; i < pad; i++ {
		data = append(data, byte(pad))
	}
	out := make([]byte, len(data))
	for start := 0; start < len(data); start += size {
		block.Encrypt(out[start:start+size], data[start:start+size])
	}
	return base64.StdEncoding.EncodeToString(out)
}

type staticToken string

func (s staticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

func TestDecrypt_RoundTrip(t *testing.T) {
	for _, plain := range []string{"app-password", "exactly16bytes!!", "contraseña con ñ"} {
		got, err := Decrypt(encryptECB(t, plain, testKey), testKey)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestDecrypt_Errors(t *testing.T) {
	_, err := Decrypt(encryptECB(t, "x", testKey), "short")
	assert.ErrorIs(t, err, apperrors.ErrDecrypt)

	_, err = Decrypt("%%%", testKey)
	assert.ErrorIs(t, err, apperrors.ErrDecrypt)

	_, err = Decrypt(base64.StdEncoding.EncodeToString([]byte("short")), testKey)
	assert.ErrorIs(t, err, apperrors.ErrDecrypt)
}

func newService(url string, client *http.Client) *Service {
	return NewService(&config.CredentialsServiceConfig{AccountsURL: url}, staticToken("tok"), client, logger.NewFromZap(zap.NewNop()))
}

func TestActiveAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"username": "facturas@gmail.com",
			"password": encryptECB(t, "app-password", testKey),
			"key":      testKey,
		})
	}))
	defer srv.Close()

	accounts, err := newService(srv.URL, srv.Client()).ActiveAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "facturas@gmail.com", accounts[0].Email)
	assert.Equal(t, "app-password", accounts[0].Password)
	assert.Equal(t, enum.ProviderGmail, accounts[0].Provider)
}

func TestActiveAccounts_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	accounts, err := newService(srv.URL, srv.Client()).ActiveAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestActiveAccounts_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newService(srv.URL, srv.Client()).ActiveAccounts(context.Background())
	assert.Error(t, err)
}
