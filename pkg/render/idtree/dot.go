// Package idtree draws the node id hierarchy of a menu template.
//
// Every node id becomes a box connected to its nearest ancestor id; bases
// that no element carries literally are drawn dashed. With a visible set,
// shown items are filled green and hidden ones grey, which makes it easy to
// compare a spreadsheet against the template it drives.
package idtree

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	errs "github.com/matzehuels/menuboard/pkg/errors"
	"github.com/matzehuels/menuboard/pkg/menu"
)

const rootID = "menu"

// Options configures diagram rendering.
type Options struct {
	// Visible, when non-nil, colors nodes by visibility.
	Visible []string
	// Title labels the root node; default "menu".
	Title string
}

// ToDOT converts an index to Graphviz DOT.
func ToDOT(idx *menu.Index, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.15;\n")
	buf.WriteString("\n")

	title := opts.Title
	if title == "" {
		title = rootID
	}
	fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse];\n", rootID, title)

	var shown map[string]bool
	if opts.Visible != nil {
		shown = make(map[string]bool, len(opts.Visible))
		for _, id := range opts.Visible {
			shown[id] = true
		}
	}

	for _, base := range idx.Bases() {
		ids, _ := idx.Get(base)
		present := make(map[string]bool, len(ids))
		for _, id := range ids {
			present[id] = true
		}

		if !present[base] {
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,dashed\"];\n", base, base)
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", rootID, base)

		for _, id := range ids {
			fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(nodeAttrs(id, shown), ", "))
			if id != base {
				fmt.Fprintf(&buf, "  %q -> %q;\n", parentOf(id, present), id)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(id string, shown map[string]bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", id)}
	switch {
	case shown == nil:
	case shown[id]:
		attrs = append(attrs, "fillcolor=palegreen")
	default:
		attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=gray40")
	}
	return attrs
}

// parentOf returns the nearest ancestor of id in present, falling back to its base.
func parentOf(id string, present map[string]bool) string {
	for p := id; ; {
		i := strings.LastIndex(p, ".")
		if i < 0 {
			return menu.BaseOf(id)
		}
		p = p[:i]
		if present[p] {
			return p
		}
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "render DOT")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root with a plain viewBox
// so the diagram scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
