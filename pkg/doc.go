// Package pkg provides the core libraries for menuboard.
//
// # Overview
//
// Menuboard drives an SVG menu from a spreadsheet. Every element of the menu
// that can be shown or hidden carries a dotted numeric id ("3", "3.1",
// "3.1.2"); the spreadsheet names those ids row by row together with a
// visibility flag and a price. The pkg directory is organized into:
//
//  1. [menu] - Domain logic (id index, row reconciliation, document rewriting)
//  2. [sheets] - Spreadsheet sources (Google Sheets, local workbooks)
//  3. [assets] - Template loading with path and size guards
//  4. [render] - Format conversion (SVG to PNG/PDF) and id diagrams
//  5. [export] - Artifact stores, uploads and export history
//  6. [pipeline] - Orchestration shared by the CLI and the HTTP server
//
// # Architecture
//
// The typical data flow through menuboard:
//
//	SVG template        Spreadsheet rows
//	     ↓                     ↓
//	[menu] index  →  [menu] reconcile
//	             ↓
//	   [menu] apply visibility + prices
//	             ↓
//	   [render] rasterize → [export] store
//
// # Quick Start
//
//	idx, _ := menu.BuildIndex(svg)
//	rec := menu.Reconcile(rows, idx)
//	out, _ := menu.Apply(svg, rec.VisibleIDs, menu.PricesFromRows(priceRows))
//
// # Supporting Packages
//
// [config] loads settings from defaults, an optional TOML file and the
// environment. [errors] defines coded errors mapped to HTTP statuses.
// [observability] exposes hooks around fetches, renders and stores.
// [httputil] retries transient upstream failures. [buildinfo] carries the
// version injected at build time.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test -run Example ./pkg/menu      # Examples only
//	go test -tags integration ./pkg/...  # Include Redis and MongoDB tests
//
// [menu]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/menu
// [sheets]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/sheets
// [assets]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/assets
// [render]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/render
// [export]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/export
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/httputil
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/menuboard/pkg/buildinfo
package pkg
