package ubl

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRead(t *testing.T, s string) *etree.Document {
	t.Helper()
	doc, err := readXMLString(s)
	require.NoError(t, err)
	return doc
}

func TestResolveNamespaces(t *testing.T) {
	doc := mustRead(t, `<Invoice xmlns:cbc="urn:custom:cbc"/>`)
	ns := ResolveNamespaces(doc)
	assert.Equal(t, "urn:custom:cbc", ns.CBC)
	assert.Equal(t, DefaultCACNamespace, ns.CAC)

	assert.Equal(t, DefaultNamespaces(), ResolveNamespaces(mustRead(t, `<Invoice/>`)))
}

func TestUnwrapEnvelope(t *testing.T) {
	outer := mustRead(t, envelope(innerInvoice))
	inner, err := UnwrapEnvelope(outer, ResolveNamespaces(outer))
	require.NoError(t, err)
	assert.NotSame(t, outer, inner)
	assert.Equal(t, "Invoice", inner.Root().Tag)

	plain := mustRead(t, invoiceXML)
	same, err := UnwrapEnvelope(plain, ResolveNamespaces(plain))
	require.NoError(t, err)
	assert.Same(t, plain, same)

	broken := mustRead(t, envelope("<Invoice><unclosed>"))
	same, err = UnwrapEnvelope(broken, ResolveNamespaces(broken))
	assert.Error(t, err)
	assert.Same(t, broken, same)
}

func TestUnwrapEmbeddedInvoice(t *testing.T) {
	outer := mustRead(t, envelope(innerInvoice))
	inner, ok := UnwrapEmbeddedInvoice(outer, ResolveNamespaces(outer))
	require.True(t, ok)
	assert.Equal(t, "Invoice", inner.Root().Tag)

	plain := mustRead(t, invoiceXML)
	same, ok := UnwrapEmbeddedInvoice(plain, ResolveNamespaces(plain))
	assert.False(t, ok)
	assert.Same(t, plain, same)
}

func TestSelector_NamespaceAware(t *testing.T) {
	doc := mustRead(t, `<r xmlns:a="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2" xmlns:cbc="urn:other">
  <cbc:ID>wrong namespace</cbc:ID>
  <a:ID>right namespace</a:ID>
</r>`)
	sel := selector{ns: DefaultNamespaces()}
	nodes := sel.selectFromDoc(doc, "//cbc:ID")
	require.Len(t, nodes, 1)
	assert.Equal(t, "right namespace", innerText(nodes[0]))
}

func TestSelector_Path(t *testing.T) {
	sel := selector{ns: Namespaces{CBC: "urn:b", CAC: "urn:a"}}
	assert.Equal(t,
		"//*[local-name()='LegalMonetaryTotal'][namespace-uri()='urn:a']/*[local-name()='PayableAmount'][namespace-uri()='urn:b']",
		sel.path("//cac:LegalMonetaryTotal/cbc:PayableAmount"))
	assert.Equal(t, "*[local-name()='Price'][namespace-uri()='urn:a']/*[local-name()='BaseQuantity'][namespace-uri()='urn:b']",
		sel.path("cac:Price/cbc:BaseQuantity"))
}

func TestSelector_RelativeToElement(t *testing.T) {
	doc := mustRead(t, `<Invoice xmlns:cac="urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2" xmlns:cbc="urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2">
  <cac:InvoiceLine><cac:Price><cbc:PriceAmount>1.00</cbc:PriceAmount></cac:Price></cac:InvoiceLine>
  <cac:InvoiceLine><cac:Price><cbc:PriceAmount>2.00</cbc:PriceAmount></cac:Price></cac:InvoiceLine>
</Invoice>`)
	sel := selector{ns: ResolveNamespaces(doc)}
	lines := sel.selectFromDoc(doc, "//cac:InvoiceLine")
	require.Len(t, lines, 2)
	assert.Equal(t, "2.00", innerText(sel.first(sel.selectFromElement(lines[1], "cac:Price/cbc:PriceAmount"))))
	assert.Nil(t, sel.first(sel.selectFromElement(lines[0], "cbc:PriceAmount")))
}

func TestReadXMLString_IgnoresDeclaredEncoding(t *testing.T) {
	doc := mustRead(t, `<?xml version="1.0" encoding="ISO-8859-1"?><Name>Compañía</Name>`)
	assert.Equal(t, "Compañía", innerText(doc.Root()))
}
