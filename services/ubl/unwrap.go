package ubl

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

// UnwrapEnvelope returns the invoice embedded as text in the first
// Attachment/Description of an AttachedDocument envelope. When there is no
// such text it returns doc unchanged; when the text is not XML it returns doc
// together with the parse error.
func UnwrapEnvelope(doc *etree.Document, ns Namespaces) (*etree.Document, error) {
	sel := selector{ns: ns}
	node := sel.first(sel.selectFromDoc(doc, "//cac:Attachment//cbc:Description"))
	text := strings.TrimSpace(innerText(node))
	if text == "" {
		return doc, nil
	}
	inner, err := readXMLString(text)
	if err != nil {
		return doc, errors.Wrap(err, "envelope description is not xml")
	}
	return inner, nil
}

// UnwrapEmbeddedInvoice looks for a Description whose text carries an
// <Invoice fragment and returns that fragment parsed as its own document.
// Lookups on the returned document use the default UBL namespaces.
func UnwrapEmbeddedInvoice(doc *etree.Document, ns Namespaces) (*etree.Document, bool) {
	sel := selector{ns: ns}
	for _, node := range sel.selectFromDoc(doc, "//cbc:Description") {
		text := strings.TrimSpace(innerText(node))
		if !strings.Contains(text, "<Invoice") {
			continue
		}
		inner, err := readXMLString(text)
		if err != nil {
			return doc, false
		}
		return inner, true
	}
	return doc, false
}

// readXMLString parses text that is already decoded, so a declared encoding
// is ignored.
func readXMLString(s string) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = passthroughCharsetReader
	if err := doc.ReadFromString(s); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("no root element")
	}
	return doc, nil
}

func readXMLFile(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromFile(path); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if doc.Root() == nil {
		return nil, errors.Errorf("read %s: no root element", path)
	}
	return doc, nil
}
