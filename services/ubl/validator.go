package ubl

import (
	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/internal/enum"
)

// NormalizeDocumentType maps UBL type codes to backend document types.
func NormalizeDocumentType(code string) string {
	return enum.DocumentTypeFromCode(code)
}

// IsComplete reports whether every required header field is present. The
// minimum-date sentinel counts as a missing issue date.
func IsComplete(doc *dto.InvoiceDocument) bool {
	return doc != nil && len(MissingFields(doc)) == 0
}

// MissingFields lists the required header fields that are empty.
func MissingFields(doc *dto.InvoiceDocument) []string {
	if doc == nil {
		return nil
	}
	var missing []string
	check := func(name, v string) {
		if v == "" {
			missing = append(missing, name)
		}
	}
	check("DocumentNumber", doc.DocumentNumber)
	check("ReceiverTaxId", doc.ReceiverTaxId)
	check("ReceiverBusinessName", doc.ReceiverBusinessName)
	check("SenderTaxId", doc.SenderTaxId)
	check("SenderBusinessName", doc.SenderBusinessName)
	check("Amount", doc.Amount)
	if doc.IssueDate.IsZero() {
		missing = append(missing, "IssueDate")
	}
	return missing
}
