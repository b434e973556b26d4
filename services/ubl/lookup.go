package ubl

import (
	"strings"

	"github.com/beevik/etree"
)

// selector evaluates prefixed lookup expressions such as
// "//cac:LegalMonetaryTotal/cbc:PayableAmount" against one namespace binding.
// Each prefixed step becomes an etree step filtered on local-name() and
// namespace-uri(), so a prefix matches by URI rather than by spelling.
type selector struct {
	ns Namespaces
}

// path rewrites expr into an etree path string.
func (s selector) path(expr string) string {
	steps := strings.Split(expr, "/")
	for i, step := range steps {
		if step == "" {
			continue
		}
		prefix, local := "", step
		if j := strings.IndexByte(step, ':'); j >= 0 {
			prefix, local = step[:j], step[j+1:]
		}
		filter := "*[local-name()='" + local + "']"
		if uri, ok := s.ns.uri(prefix); ok {
			filter += "[namespace-uri()='" + uri + "']"
		}
		steps[i] = filter
	}
	return strings.Join(steps, "/")
}

func (s selector) find(from *etree.Element, expr string) []*etree.Element {
	p, err := etree.CompilePath(s.path(expr))
	if err != nil {
		return nil
	}
	return from.FindElementsPath(p)
}

func (s selector) selectFromDoc(doc *etree.Document, expr string) []*etree.Element {
	if doc == nil || doc.Root() == nil {
		return nil
	}
	return s.find(&doc.Element, expr)
}

func (s selector) selectFromElement(ctx *etree.Element, expr string) []*etree.Element {
	if ctx == nil {
		return nil
	}
	return s.find(ctx, expr)
}

func (s selector) first(nodes []*etree.Element) *etree.Element {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// innerText concatenates every character data node below el. Element.Text
// only returns the leading run.
func innerText(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var sb strings.Builder
	var collect func(*etree.Element)
	collect = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				sb.WriteString(t.Data)
			case *etree.Element:
				collect(t)
			}
		}
	}
	collect(el)
	return sb.String()
}
