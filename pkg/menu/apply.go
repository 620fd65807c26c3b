package menu

import (
	"github.com/beevik/etree"
)

// hideClass is the class token authoring templates use to hide items by default.
const hideClass = "hide"

// Apply rewrites svg so that exactly the node ids in visible are shown and
// every price element carries its price text. See [Document.ApplyVisibility]
// and [Document.ApplyPrices] for the rules. The input is parsed afresh on
// every call and the result is idempotent.
func Apply(svg []byte, visible []string, prices PriceMap) ([]byte, error) {
	doc, err := ParseDocument(svg)
	if err != nil {
		return nil, err
	}
	doc.ApplyVisibility(visible)
	doc.ApplyPrices(prices)
	return doc.Bytes()
}

// ApplyVisibility is [Apply] without prices.
func ApplyVisibility(svg []byte, visible []string) ([]byte, error) {
	return Apply(svg, visible, nil)
}

// ApplyPrices is [Apply] without touching visibility.
func ApplyPrices(svg []byte, prices PriceMap) ([]byte, error) {
	doc, err := ParseDocument(svg)
	if err != nil {
		return nil, err
	}
	doc.ApplyPrices(prices)
	return doc.Bytes()
}

// ApplyVisibility shows or hides every element whose id is a node id.
//
// Shown elements lose display and visibility inline declarations, get
// display="inline" and visibility="visible", and lose the "hide" class token.
// Hidden elements get display:none both inline and as an attribute, because
// inline styles win over presentation attributes in renderers and exporters
// differ in which one they read. Elements with other ids are never touched.
func (d *Document) ApplyVisibility(visible []string) {
	show := make(map[string]bool, len(visible))
	for _, id := range visible {
		show[id] = true
	}

	d.eachWithID(func(id string, el *etree.Element) {
		if !IsNodeID(id) {
			return
		}
		raw, _ := attrValue(el, "style")
		st := parseStyle(raw)

		if show[id] {
			st.delete("display")
			st.delete("visibility")
			setAttr(el, "display", "inline")
			setAttr(el, "visibility", "visible")
			if classes, ok := attrValue(el, "class"); ok {
				if next := removeClassToken(classes, hideClass); next != "" {
					setAttr(el, "class", next)
				} else {
					removeAttr(el, "class")
				}
			}
		} else {
			st.set("display", "none")
			st.delete("visibility")
			setAttr(el, "display", "none")
		}

		if st.empty() {
			removeAttr(el, "style")
		} else {
			setAttr(el, "style", st.String())
		}
	})
}

// ApplyPrices replaces the text content of every element whose id equals a
// price key. Nested text spans are removed along with their text, so the
// value is the element's only content.
func (d *Document) ApplyPrices(prices PriceMap) {
	for _, key := range prices.Keys() {
		for _, el := range d.elementsByID(key) {
			setTextContent(el, prices[key])
		}
	}
}
