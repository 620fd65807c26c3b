// Package render turns menu SVG documents into raster or print formats.
//
// Conversion shells out to rsvg-convert (librsvg), which honors both
// presentation attributes and inline styles the same way browsers do:
//
//	r := render.RSVG{Scale: 2, Background: "white"}
//	png, err := r.Render(ctx, svg, render.FormatPNG)
//
// The [idtree] subpackage draws the id hierarchy of a template with Graphviz,
// which helps when authoring templates and their spreadsheet.
package render
