package credentials

import (
	"crypto/aes"
	"encoding/base64"

	"github.com/pkg/errors"

	apperrors "github.com/customeros/invoicextract/internal/errors"
)

// Decrypt reverses Base64(AES-256-ECB(PKCS7(plaintext))) with a UTF-8 key.
func Decrypt(base64Cipher, utf8Key string) (string, error) {
	key := []byte(utf8Key)
	if len(key) != 32 {
		return "", errors.Wrapf(apperrors.ErrDecrypt, "key must be 32 bytes, got %d", len(key))
	}
	ciphertext, err := base64.StdEncoding.DecodeString(base64Cipher)
	if err != nil {
		return "", errors.Wrap(apperrors.ErrDecrypt, err.Error())
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", errors.Wrap(apperrors.ErrDecrypt, err.Error())
	}
	size := block.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%size != 0 {
		return "", errors.Wrap(apperrors.ErrDecrypt, "ciphertext is not a whole number of blocks")
	}

	plain := make([]byte, len(ciphertext))
	for start := 0; start < len(ciphertext); start += size {
		block.Decrypt(plain[start:start+size], ciphertext[start:start+size])
	}

	unpadded, err := pkcs7Unpad(plain, size)
	if err != nil {
		return "", errors.Wrap(apperrors.ErrDecrypt, err.Error())
	}
	return string(unpadded), nil
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, errors.New("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
