package menu

import (
	"slices"

	"github.com/beevik/etree"

	errs "github.com/matzehuels/menuboard/pkg/errors"
)

// Document is a parsed SVG tree. It is mutated in place by [Document.ApplyVisibility]
// and [Document.ApplyPrices] and serialized back with [Document.Bytes].
//
// A Document is not safe for concurrent use. Callers parse a fresh Document
// for every request.
type Document struct {
	doc *etree.Document
}

// ParseDocument parses SVG markup into an editable tree.
// Malformed markup yields an INVALID_INPUT error.
func ParseDocument(svg []byte) (*Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.PreserveCData = true
	// Tabs and newlines in attribute values are written as character
	// references; raw ones are normalized to spaces by XML parsers.
	doc.WriteSettings.CanonicalAttrVal = true
	if err := doc.ReadFromBytes(svg); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse SVG")
	}
	if doc.Root() == nil {
		return nil, errs.New(errs.ErrCodeInvalidInput, "SVG document has no root element")
	}
	return &Document{doc: doc}, nil
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	out, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "serialize SVG")
	}
	return out, nil
}

// Index builds the id index of the document in its current state.
func (d *Document) Index() *Index {
	b := newIndexBuilder()
	d.eachWithID(func(id string, _ *etree.Element) {
		b.add(id)
	})
	return b.build()
}

// eachWithID calls fn for every element carrying a plain id attribute, in document order.
func (d *Document) eachWithID(fn func(id string, el *etree.Element)) {
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		if id, ok := attrValue(el, "id"); ok {
			fn(id, el)
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(d.doc.Root())
}

// elementsByID returns every element whose id equals id.
func (d *Document) elementsByID(id string) []*etree.Element {
	var found []*etree.Element
	d.eachWithID(func(got string, el *etree.Element) {
		if got == id {
			found = append(found, el)
		}
	})
	return found
}

// Attribute helpers only touch attributes without a namespace prefix, so
// authoring-tool attributes such as inkscape:label are left alone.

func attrValue(el *etree.Element, key string) (string, bool) {
	for _, a := range el.Attr {
		if a.Space == "" && a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func setAttr(el *etree.Element, key, value string) {
	for i := range el.Attr {
		if el.Attr[i].Space == "" && el.Attr[i].Key == key {
			el.Attr[i].Value = value
			return
		}
	}
	el.Attr = append(el.Attr, etree.Attr{Key: key, Value: value})
}

func removeAttr(el *etree.Element, key string) {
	el.Attr = slices.DeleteFunc(el.Attr, func(a etree.Attr) bool {
		return a.Space == "" && a.Key == key
	})
}

// setTextContent replaces all children of el with a single text node,
// the way DOM textContent assignment does.
func setTextContent(el *etree.Element, text string) {
	for len(el.Child) > 0 {
		el.RemoveChildAt(0)
	}
	if text != "" {
		el.SetText(text)
	}
}
