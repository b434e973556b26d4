package ubl

import (
	"context"
	"strings"

	"github.com/beevik/etree"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/log"

	"github.com/customeros/invoicextract/dto"
	"github.com/customeros/invoicextract/internal/logger"
	"github.com/customeros/invoicextract/internal/tracing"
)

type Parser struct {
	log logger.Logger
}

func NewParser(log logger.Logger) *Parser {
	return &Parser{log: log}
}

// Parse loads the invoice XML at path. The returned document is never nil: a
// file that cannot be loaded yields the defaults together with the error, and
// anomalies inside a loaded document resolve to defaults without an error.
func (p *Parser) Parse(ctx context.Context, path string) (*dto.InvoiceDocument, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Parser.Parse")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogFields(log.String("path", path))

	doc, err := readXMLFile(path)
	if err != nil {
		tracing.TraceErr(span, err)
		return dto.NewInvoiceDocument(), err
	}
	return p.Extract(doc, path), nil
}

// Extract builds the invoice from a loaded document.
func (p *Parser) Extract(doc *etree.Document, source string) (result *dto.InvoiceDocument) {
	result = dto.NewInvoiceDocument()
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorf("Error processing xml %s: %v", source, r)
			result.InvoiceItems = []dto.InvoiceLineItem{}
		}
	}()

	ns := ResolveNamespaces(doc)
	target, err := UnwrapEnvelope(doc, ns)
	if err != nil {
		p.log.Warnf("Could not parse embedded envelope document in %s: %v", source, err)
	}

	x := extractor{sel: selector{ns: ns}, doc: target}

	result.DocumentNumber = x.firstText("//cbc:ParentDocumentID", "//cbc:ID")
	result.IssueDate = parseDate(x.firstText("//cbc:IssueDate"))
	result.DocumentType = x.firstText("//cbc:InvoiceTypeCode", "//cbc:CreditNoteTypeCode")

	result.SenderBusinessName = x.firstText(
		"//cac:SenderParty//cbc:RegistrationName",
		"//cac:AccountingSupplierParty//cbc:RegistrationName",
	)
	if node := x.firstNode("//cac:SenderParty//cbc:CompanyID", "//cac:AccountingSupplierParty//cbc:CompanyID"); node != nil {
		result.SenderTaxIdWithoutCheckDigit, result.SenderTaxId = taxID(node)
	}

	result.ReceiverBusinessName = x.firstText(
		"//cac:ReceiverParty//cbc:RegistrationName",
		"//cac:AccountingCustomerParty//cbc:RegistrationName",
	)
	if node := x.firstNode("//cac:ReceiverParty//cbc:CompanyID", "//cac:AccountingCustomerParty//cbc:CompanyID"); node != nil {
		result.ReceiverTaxIdWithoutCheckDigit, result.ReceiverTaxId = taxID(node)
	}

	result.RelatedDocumentNumber = x.firstText("//cac:OrderReference/cbc:ID")
	result.Amount = p.payableAmount(x, source)
	result.DueDate = parseDate(x.firstText("//cac:PaymentMeans/cbc:PaymentDueDate"))
	result.InvoiceItems = x.lines()

	return result
}

func (p *Parser) payableAmount(x extractor, source string) string {
	const payable = "//cac:LegalMonetaryTotal/cbc:PayableAmount"
	amount := x.firstText(payable)
	if amount == "" {
		if embedded, ok := UnwrapEmbeddedInvoice(x.doc, x.sel.ns); ok {
			inner := extractor{sel: selector{ns: DefaultNamespaces()}, doc: embedded}
			amount = inner.firstText(payable)
		} else {
			p.log.Debugf("No payable amount found in %s", source)
		}
	}
	if amount == "" {
		return dto.DefaultAmount
	}
	return amount
}

// taxID returns the identifier alone and the identifier with its schemeID suffix.
func taxID(node *etree.Element) (string, string) {
	id := strings.TrimSpace(innerText(node))
	return id, id + node.SelectAttrValue("schemeID", "")
}

type extractor struct {
	sel selector
	doc *etree.Document
}

func (x extractor) firstNode(exprs ...string) *etree.Element {
	for _, expr := range exprs {
		if node := x.sel.first(x.sel.selectFromDoc(x.doc, expr)); node != nil {
			return node
		}
	}
	return nil
}

// firstText returns the trimmed text of the first expression that matches a node.
func (x extractor) firstText(exprs ...string) string {
	return strings.TrimSpace(innerText(x.firstNode(exprs...)))
}

func (x extractor) lines() []dto.InvoiceLineItem {
	items := []dto.InvoiceLineItem{}
	for _, line := range x.sel.selectFromDoc(x.doc, "//cac:InvoiceLine") {
		item := dto.InvoiceLineItem{
			ItemCode:    x.childText(line, "cbc:ID", ""),
			Quantity:    parseQuantity(x.childText(line, "cbc:InvoicedQuantity", "0")),
			Subtotal:    x.childText(line, "cbc:LineExtensionAmount", dto.DefaultAmount),
			UnitPrice:   x.childText(line, "cac:Price/cbc:PriceAmount", dto.DefaultAmount),
			Description: x.childText(line, "cac:Item/cbc:Description", ""),
			TaxAmount:   x.childText(line, "cac:TaxTotal/cbc:TaxAmount", dto.DefaultAmount),
		}
		if base := x.sel.first(x.sel.selectFromElement(line, "cac:Price/cbc:BaseQuantity")); base != nil {
			item.Unit = base.SelectAttrValue("unitCode", "")
		}
		item.Total = lineTotal(item.Subtotal, item.TaxAmount)
		items = append(items, item)
	}
	return items
}

func (x extractor) childText(ctx *etree.Element, expr, fallback string) string {
	node := x.sel.first(x.sel.selectFromElement(ctx, expr))
	if node == nil {
		return fallback
	}
	return strings.TrimSpace(innerText(node))
}
