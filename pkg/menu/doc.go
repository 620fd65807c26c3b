// Package menu reconciles spreadsheet rows with the element ids of a menu SVG
// and rewrites the document so that only the requested items are shown.
//
// # Node IDs
//
// Menu items are SVG elements whose id is a dotted numeric path such as "3",
// "3.2" or "3.2.1". The first segment is the item's base. Any other id in the
// document (layers, groups, gradients from an authoring tool) is ignored by
// every function in this package.
//
// # Pipeline
//
// A request flows through three steps:
//
//	idx, err := menu.BuildIndex(svg)          // base -> ordered node ids
//	rec := menu.Reconcile(rows, idx)          // rows -> visible ids
//	out, err := menu.Apply(svg, rec.VisibleIDs, menu.PricesFromRows(priceRows))
//
// [BuildIndex] groups node ids by base in numeric order ("3.2" sorts before
// "3.10"). [Reconcile] decides per row which column holds the id and which
// holds the visibility flag, then expands each row to the concrete node ids
// it controls. [Apply] writes display attributes, inline styles and price
// text so that renderers honoring either presentation attributes or inline
// styles show the same result.
//
// # Determinism
//
// Every function is a pure transformation of its inputs. [Apply] parses the
// document afresh on each call and is idempotent: applying the same visible
// ids and prices twice yields byte-identical output.
package menu
