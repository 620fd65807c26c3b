package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/menuboard/pkg/assets"
	errs "github.com/matzehuels/menuboard/pkg/errors"
	"github.com/matzehuels/menuboard/pkg/export"
	"github.com/matzehuels/menuboard/pkg/menu"
	"github.com/matzehuels/menuboard/pkg/observability"
	"github.com/matzehuels/menuboard/pkg/render"
	"github.com/matzehuels/menuboard/pkg/sheets"
)

// Runner executes menu requests.
//
// The Runner holds no per-request state beyond the export name sequence.
// Multiple goroutines can safely use the same Runner.
type Runner struct {
	Assets *assets.Loader

	// Sheets reads the spreadsheet. When nil, requests that need rows fail
	// with SheetsErr, or MISSING_CONFIGURATION when that is nil too.
	Sheets    sheets.Source
	SheetsErr error

	Rasterizer render.Rasterizer
	Store      export.Store

	// Uploader and History are optional.
	Uploader export.Uploader
	History  export.History

	Logger  *log.Logger
	Options Options

	// Now is the clock used to name exports.
	Now func() time.Time

	names export.Sequence
}

// NewRunner creates a runner with an rsvg rasterizer and an in-memory store.
// Callers replace fields as needed before use.
func NewRunner(loader *assets.Loader, src sheets.Source, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Assets:     loader,
		Sheets:     src,
		Rasterizer: render.RSVG{},
		Store:      export.NewMemoryStore(),
		Logger:     logger,
		Options:    Options{}.WithDefaults(),
		Now:        time.Now,
	}
}

// Load reads a template; an empty url selects the default template.
func (r *Runner) Load(svgURL string) (string, []byte, error) {
	svgURL = strings.TrimSpace(svgURL)
	if svgURL == "" {
		svgURL = r.opts().DefaultSVGURL
	}
	svg, err := r.Assets.Load(svgURL)
	if err != nil {
		return svgURL, nil, err
	}
	return svgURL, svg, nil
}

// Visibility loads the template, reads both ranges concurrently and
// reconciles the rows against the template's ids.
func (r *Runner) Visibility(ctx context.Context, svgURL string) (*VisibilityResult, error) {
	if _, err := r.source(); err != nil {
		return nil, err
	}

	loadStart := time.Now()
	svgURL, svg, err := r.Load(svgURL)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(loadStart)

	res, err := r.VisibilityOf(ctx, svg)
	if err != nil {
		return nil, err
	}
	res.SVGURL = svgURL
	res.Stats.LoadTime = loadTime

	r.Logger.Info("reconciled rows",
		"svg", svgURL,
		"rows", res.Stats.Rows,
		"bases", res.Index.Len(),
		"visible", len(res.RawVisibleIDs),
		"nodes", len(res.VisibleIDs),
		"duration", loadTime+res.Stats.FetchTime)
	return res, nil
}

// VisibilityOf reconciles the sheet against an already loaded document.
func (r *Runner) VisibilityOf(ctx context.Context, svg []byte) (*VisibilityResult, error) {
	src, err := r.source()
	if err != nil {
		return nil, err
	}
	idx, err := menu.BuildIndex(svg)
	if err != nil {
		return nil, err
	}

	fetchStart := time.Now()
	opts := r.opts()
	var visRows, priceRows [][]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		visRows, err = r.fetch(gctx, src, opts.VisibilityRange)
		return err
	})
	g.Go(func() (err error) {
		priceRows, err = r.fetch(gctx, src, opts.PriceRange)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	fetchTime := time.Since(fetchStart)

	rec := menu.Reconcile(visRows, idx)
	observability.Pipeline().OnReconcile(ctx, len(visRows), len(rec.VisibleIDs))

	return &VisibilityResult{
		VisibleIDs:    nonNil(rec.VisibleIDs),
		RawVisibleIDs: nonNil(rec.RawVisibleIDs),
		Prices:        menu.PricesFromRows(priceRows),
		Entries:       rec.Entries,
		Index:         idx,
		Stats: Stats{
			FetchTime: fetchTime,
			Rows:      len(visRows),
			Nodes:     idx.NodeCount(),
		},
	}, nil
}

// ApplySheet reconciles the sheet against svg and returns the rewritten document.
func (r *Runner) ApplySheet(ctx context.Context, svg []byte) ([]byte, *VisibilityResult, error) {
	vis, err := r.VisibilityOf(ctx, svg)
	if err != nil {
		return nil, nil, err
	}
	out, err := menu.Apply(svg, vis.VisibleIDs, vis.Prices)
	if err != nil {
		return nil, nil, err
	}
	return out, vis, nil
}

// Prices reads and formats the price range.
func (r *Runner) Prices(ctx context.Context) (menu.PriceMap, error) {
	src, err := r.source()
	if err != nil {
		return nil, err
	}
	rows, err := r.fetch(ctx, src, r.opts().PriceRange)
	if err != nil {
		return nil, err
	}
	return menu.PricesFromRows(rows), nil
}

// Preview returns the template at svgURL with the current sheet applied.
// When visibleIDs is non-nil it replaces the sheet's visibility and is
// expanded like an export request.
func (r *Runner) Preview(ctx context.Context, svgURL string, visibleIDs []string) ([]byte, error) {
	if visibleIDs != nil {
		applied, err := r.applyTemplate(ctx, svgURL, visibleIDs)
		if err != nil {
			return nil, err
		}
		return applied.svg, nil
	}
	_, svg, err := r.Load(svgURL)
	if err != nil {
		return nil, err
	}
	out, _, err := r.ApplySheet(ctx, svg)
	return out, err
}

// Export renders the requested menu to PNG, stores it, and records it.
func (r *Runner) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	var applied *appliedTemplate
	var svg []byte
	switch {
	case req.SVG != "":
		if err := errs.ValidateSVGPayload(req.SVG); err != nil {
			return nil, err
		}
		svg = []byte(req.SVG)
	case strings.TrimSpace(req.SVGURL) != "":
		var err error
		if applied, err = r.applyTemplate(ctx, req.SVGURL, req.VisibleIDs); err != nil {
			return nil, err
		}
		svg = applied.svg
	default:
		return nil, errs.New(errs.ErrCodeInvalidInput, "Missing SVG payload.")
	}

	png, err := r.rasterize(ctx, svg, render.FormatPNG)
	if err != nil {
		return nil, err
	}

	artifact := export.NewArtifact(png, r.names.Next(r.now()))
	if err := r.Store.Save(ctx, artifact); err != nil {
		return nil, err
	}

	result := &ExportResult{Artifact: artifact, Record: export.NewRecord(artifact)}
	result.Record.VisibleIDs = nonNil(req.VisibleIDs)
	if applied != nil {
		result.Record.SVGURL = applied.url
		result.Record.VisibleIDs = nonNil(applied.visible)
		result.Record.RawVisibleIDs = nonNil(req.VisibleIDs)
		result.Record.Prices = applied.prices
	}

	if r.Uploader != nil {
		url, err := r.Uploader.Upload(ctx, artifact)
		if err != nil {
			// The export itself succeeded; a failed upload only loses the link.
			r.Logger.Warn("upload failed", "file", artifact.Name, "err", err)
		} else {
			result.UploadURL = url
			result.Record.UploadURL = url
		}
	}

	if r.History != nil {
		if err := r.History.Add(ctx, result.Record); err != nil {
			r.Logger.Warn("record export failed", "file", artifact.Name, "err", err)
		}
	}

	r.Logger.Info("exported menu",
		"file", artifact.Name,
		"bytes", len(png),
		"svg", result.Record.SVGURL,
		"uploaded", result.UploadURL != "")
	return result, nil
}

// Render applies the sheet to svg and converts the result to format,
// without storing anything.
func (r *Runner) Render(ctx context.Context, svg []byte, format render.Format) ([]byte, *VisibilityResult, error) {
	out, vis, err := r.ApplySheet(ctx, svg)
	if err != nil {
		return nil, nil, err
	}
	data, err := r.rasterize(ctx, out, format)
	if err != nil {
		return nil, nil, err
	}
	return data, vis, nil
}

// Close releases the store and history.
func (r *Runner) Close() error {
	var firstErr error
	if r.History != nil {
		firstErr = r.History.Close()
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type appliedTemplate struct {
	url     string
	svg     []byte
	visible []string
	prices  menu.PriceMap
}

// applyTemplate loads svgURL, expands ids through its index and applies them
// with freshly read prices.
func (r *Runner) applyTemplate(ctx context.Context, svgURL string, ids []string) (*appliedTemplate, error) {
	url, svg, err := r.Load(svgURL)
	if err != nil {
		return nil, err
	}
	doc, err := menu.ParseDocument(svg)
	if err != nil {
		return nil, err
	}
	prices, err := r.Prices(ctx)
	if err != nil {
		return nil, err
	}

	expanded := menu.ExpandIDs(ids, doc.Index())
	doc.ApplyVisibility(expanded)
	doc.ApplyPrices(prices)
	out, err := doc.Bytes()
	if err != nil {
		return nil, err
	}
	return &appliedTemplate{url: url, svg: out, visible: expanded, prices: prices}, nil
}

func (r *Runner) fetch(ctx context.Context, src sheets.Source, rng string) ([][]string, error) {
	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, src.Name(), rng)
	start := time.Now()
	rows, err := src.Values(ctx, rng)
	hooks.OnFetchComplete(ctx, src.Name(), rng, len(rows), time.Since(start), err)
	if err != nil {
		if errs.GetCode(err) == "" {
			err = errs.Wrap(errs.ErrCodeUpstream, err, "read range %s", rng)
		}
		return nil, err
	}
	return rows, nil
}

func (r *Runner) rasterize(ctx context.Context, svg []byte, format render.Format) ([]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, string(format))
	start := time.Now()
	out, err := r.Rasterizer.Render(ctx, svg, format)
	hooks.OnRenderComplete(ctx, string(format), len(out), time.Since(start), err)
	return out, err
}

func (r *Runner) source() (sheets.Source, error) {
	if r.Sheets != nil {
		return r.Sheets, nil
	}
	if r.SheetsErr != nil {
		return nil, r.SheetsErr
	}
	return nil, errs.New(errs.ErrCodeMissingConfig, "Missing GOOGLE_SHEETS_ID or GOOGLE_API_KEY.")
}

func (r *Runner) opts() Options {
	return r.Options.WithDefaults()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
