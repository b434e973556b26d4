package enum

import "strings"

type MailProvider string

const (
	ProviderGmail   MailProvider = "gmail"
	ProviderOutlook MailProvider = "outlook"
)

func (p MailProvider) String() string {
	return string(p)
}

// ProviderFromAddress picks gmail for gmail addresses and outlook for everything else.
func ProviderFromAddress(address string) MailProvider {
	if strings.Contains(strings.ToLower(address), "gmail") {
		return ProviderGmail
	}
	return ProviderOutlook
}
