package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	errs "github.com/matzehuels/menuboard/pkg/errors"
	"github.com/matzehuels/menuboard/pkg/httputil"
	"github.com/matzehuels/menuboard/pkg/observability"
)

const googleHost = "sheets.googleapis.com"

// GoogleConfig addresses a Google spreadsheet.
type GoogleConfig struct {
	SpreadsheetID string
	APIKey        string
	SheetName     string        // preferred tab; first tab when empty or absent
	Attempts      int           // per call, default 3
	RetryDelay    time.Duration // first backoff, default 500ms
	Timeout       time.Duration // per attempt, 0 for none
}

// GoogleSource reads ranges through the Sheets v4 API.
type GoogleSource struct {
	cfg GoogleConfig
	svc *gsheets.Service
}

// NewGoogleSource creates a source. Extra options are passed to the API
// client after the API key, so tests can point it at another endpoint.
func NewGoogleSource(ctx context.Context, cfg GoogleConfig, opts ...option.ClientOption) (*GoogleSource, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errs.New(errs.ErrCodeMissingConfig, "Missing GOOGLE_SHEETS_ID or GOOGLE_API_KEY.")
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "create sheets client")
	}
	return &GoogleSource{cfg: cfg, svc: svc}, nil
}

// Name implements Source.
func (g *GoogleSource) Name() string { return "google" }

// Values implements Source. Failures after all retries are UPSTREAM_UNAVAILABLE.
func (g *GoogleSource) Values(ctx context.Context, rng string) ([][]string, error) {
	if !HasSheet(rng) {
		titles, err := g.Titles(ctx)
		if err != nil {
			return nil, err
		}
		if rng, err = QualifyRange(rng, g.cfg.SheetName, titles); err != nil {
			return nil, err
		}
	}

	var vr *gsheets.ValueRange
	path := "/v4/spreadsheets/" + g.cfg.SpreadsheetID + "/values/" + url.PathEscape(rng)
	err := g.call(ctx, path, func(ctx context.Context) error {
		var err error
		vr, err = g.svc.Spreadsheets.Values.Get(g.cfg.SpreadsheetID, rng).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "read range %s", rng)
	}
	return toRows(vr.Values), nil
}

// Titles returns the tab titles of the spreadsheet in order.
func (g *GoogleSource) Titles(ctx context.Context) ([]string, error) {
	var ss *gsheets.Spreadsheet
	path := "/v4/spreadsheets/" + g.cfg.SpreadsheetID
	err := g.call(ctx, path, func(ctx context.Context) error {
		var err error
		ss, err = g.svc.Spreadsheets.Get(g.cfg.SpreadsheetID).
			Fields("sheets.properties.title").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "read spreadsheet tabs")
	}

	var titles []string
	for _, sh := range ss.Sheets {
		if sh != nil && sh.Properties != nil && sh.Properties.Title != "" {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

// call runs one API request with retries, reporting each attempt to the HTTP hooks.
func (g *GoogleSource) call(ctx context.Context, path string, do func(context.Context) error) error {
	hooks := observability.HTTP()
	return httputil.Retry(ctx, g.cfg.Attempts, g.cfg.RetryDelay, func() error {
		actx, cancel := g.attemptContext(ctx)
		defer cancel()

		hooks.OnRequest(ctx, "GET", googleHost, path)
		start := time.Now()
		err := do(actx)
		if err == nil {
			hooks.OnResponse(ctx, "GET", googleHost, path, 200, time.Since(start))
			return nil
		}

		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			hooks.OnResponse(ctx, "GET", googleHost, path, apiErr.Code, time.Since(start))
			if httputil.RetryableStatus(apiErr.Code) {
				return &httputil.RetryableError{Err: err}
			}
			return err
		}
		hooks.OnError(ctx, "GET", googleHost, path, err)
		if ctx.Err() != nil {
			return err
		}
		// Transport failures and per-attempt timeouts.
		return &httputil.RetryableError{Err: err}
	})
}

func (g *GoogleSource) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, g.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// toRows converts API cell values to strings. The API returns formatted
// values as strings; anything else is printed with %v.
func toRows(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch v := v.(type) {
			case nil:
			case string:
				cells[j] = v
			default:
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return rows
}
