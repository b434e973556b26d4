package ubl

import "github.com/beevik/etree"

const (
	DefaultCBCNamespace = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	DefaultCACNamespace = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
)

// Namespaces binds the cbc and cac prefixes used in lookup paths to URIs.
type Namespaces struct {
	CBC string
	CAC string
}

func DefaultNamespaces() Namespaces {
	return Namespaces{CBC: DefaultCBCNamespace, CAC: DefaultCACNamespace}
}

// ResolveNamespaces reads the cbc and cac declarations of the root element,
// falling back to the UBL 2.1 URNs.
func ResolveNamespaces(doc *etree.Document) Namespaces {
	ns := DefaultNamespaces()
	if doc == nil || doc.Root() == nil {
		return ns
	}
	for _, attr := range doc.Root().Attr {
		if attr.Space != "xmlns" || attr.Value == "" {
			continue
		}
		switch attr.Key {
		case "cbc":
			ns.CBC = attr.Value
		case "cac":
			ns.CAC = attr.Value
		}
	}
	return ns
}

func (n Namespaces) uri(prefix string) (string, bool) {
	switch prefix {
	case "cbc":
		return n.CBC, true
	case "cac":
		return n.CAC, true
	default:
		return "", false
	}
}
