// Package pipeline ties the menu engine to its inputs and outputs.
//
// One [Runner] serves the CLI and the HTTP server alike:
//
//  1. Load: read the SVG template from the public assets
//  2. Index: collect node ids by base ([menu.BuildIndex])
//  3. Fetch: read the visibility and price ranges concurrently
//  4. Reconcile: resolve rows to visible node ids ([menu.Reconcile])
//  5. Apply and render: rewrite the document and rasterize it
//  6. Export: store the image, optionally upload it and record it
//
// Nothing is cached between calls. Every request re-reads the template and the
// spreadsheet, so edits to either show up on the next request.
//
// # Usage
//
//	runner := pipeline.NewRunner(loader, source, logger)
//	vis, err := runner.Visibility(ctx, "/assets/menu1.svg")
//	res, err := runner.Export(ctx, pipeline.ExportRequest{
//	    SVGURL:     "/assets/menu1.svg",
//	    VisibleIDs: vis.RawVisibleIDs,
//	})
package pipeline

import (
	"time"

	"github.com/matzehuels/menuboard/pkg/export"
	"github.com/matzehuels/menuboard/pkg/menu"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultVisibilityRange holds id and flag columns below two header rows.
	DefaultVisibilityRange = "A3:B"

	// DefaultPriceRange holds one price per row, aligned with the visibility range.
	DefaultPriceRange = "C3:C"

	// DefaultSVGURL is the template used when a request names none.
	DefaultSVGURL = "/assets/menu1.svg"
)

// Options configures a Runner.
type Options struct {
	VisibilityRange string
	PriceRange      string
	DefaultSVGURL   string
}

// WithDefaults fills empty fields.
func (o Options) WithDefaults() Options {
	if o.VisibilityRange == "" {
		o.VisibilityRange = DefaultVisibilityRange
	}
	if o.PriceRange == "" {
		o.PriceRange = DefaultPriceRange
	}
	if o.DefaultSVGURL == "" {
		o.DefaultSVGURL = DefaultSVGURL
	}
	return o
}

// VisibilityResult is what clients need to show a menu.
type VisibilityResult struct {
	SVGURL string `json:"svgUrl"`

	// VisibleIDs are the expanded node ids to show.
	VisibleIDs []string `json:"visibleIds"`

	// RawVisibleIDs are the ids as the sheet names them. Status lines show
	// these and clients send them back on export.
	RawVisibleIDs []string `json:"rawVisibleIds"`

	Prices menu.PriceMap `json:"prices"`

	// Entries are the per-row decisions, for diagnostics.
	Entries []menu.Entry `json:"-"`

	// Index is the id index of the template.
	Index *menu.Index `json:"-"`

	Stats Stats `json:"-"`
}

// Stats records how long each stage took.
type Stats struct {
	LoadTime  time.Duration
	FetchTime time.Duration
	Rows      int
	Nodes     int
}

// ExportRequest selects what to export. SVG wins over SVGURL.
type ExportRequest struct {
	// SVG is complete markup prepared by a client. It is rendered as is.
	SVG string

	// SVGURL names a template. It is rewritten with VisibleIDs and the
	// current prices before rendering.
	SVGURL string

	// VisibleIDs may mix bases and node ids; bases known to the template are
	// expanded, anything else is applied as given.
	VisibleIDs []string
}

// ExportResult describes a finished export.
type ExportResult struct {
	Artifact  export.Artifact
	Record    export.Record
	UploadURL string
}
