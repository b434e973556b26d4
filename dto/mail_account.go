package dto

import "github.com/customeros/invoicextract/internal/enum"

type MailAccountCredential struct {
	Email    string
	Password string
	Provider enum.MailProvider
}
