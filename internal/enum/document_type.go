package enum

type DocumentType string

const (
	DocumentInvoice    DocumentType = "FACTURA"
	DocumentCreditNote DocumentType = "NOTA CREDITO"
	DocumentDebitNote  DocumentType = "NOTA DEBITO"
)

func (t DocumentType) String() string {
	return string(t)
}

var documentTypeCodes = map[string]DocumentType{
	"01": DocumentInvoice,
	"02": DocumentInvoice,
	"03": DocumentInvoice,
	"04": DocumentInvoice,
	"91": DocumentCreditNote,
	"92": DocumentDebitNote,
}

// DocumentTypeFromCode maps a UBL type code; unknown codes come back unchanged.
func DocumentTypeFromCode(code string) string {
	if t, ok := documentTypeCodes[code]; ok {
		return t.String()
	}
	return code
}
