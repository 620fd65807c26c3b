// Package cli implements the menuboard command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/menuboard/pkg/assets"
	"github.com/matzehuels/menuboard/pkg/buildinfo"
	"github.com/matzehuels/menuboard/pkg/config"
	"github.com/matzehuels/menuboard/pkg/export"
	"github.com/matzehuels/menuboard/pkg/observability"
	"github.com/matzehuels/menuboard/pkg/pipeline"
	"github.com/matzehuels/menuboard/pkg/render"
	"github.com/matzehuels/menuboard/pkg/sheets"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "menuboard",
		Short:        "Menuboard drives SVG menu boards from a spreadsheet",
		Long:         `Menuboard shows, hides and prices the items of an SVG menu from the rows of a spreadsheet, and exports the result as PNG for display screens.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			hooks := observability.LogHooks{Logger: c.Logger}
			observability.SetPipelineHooks(hooks)
			observability.SetStoreHooks(hooks)
			observability.SetHTTPHooks(hooks)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default ./"+config.DefaultFile+" when present)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.idsCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.versionCommand())

	return root
}

func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(buildinfo.String())
		},
	}
}

// =============================================================================
// Runner Factory
// =============================================================================

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(config.Options{File: c.configFile})
}

// sheetFlags override the configured spreadsheet source.
type sheetFlags struct {
	xlsx       string
	sheetName  string
	rng        string
	priceRange string
}

func (f *sheetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.xlsx, "rows", "", "read rows from this .xlsx file instead of the configured sheet")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "preferred sheet tab")
	cmd.Flags().StringVar(&f.rng, "range", "", "visibility range (default from config)")
	cmd.Flags().StringVar(&f.priceRange, "price-range", "", "price range (default from config)")
}

func (f sheetFlags) apply(cfg *config.Config) {
	if f.xlsx != "" {
		cfg.Sheets.Source = config.SourceXLSX
		cfg.Sheets.XLSXPath = f.xlsx
	}
	if f.sheetName != "" {
		cfg.Sheets.SheetName = f.sheetName
	}
	if f.rng != "" {
		cfg.Sheets.Range = f.rng
	}
	if f.priceRange != "" {
		cfg.Sheets.PriceRange = f.priceRange
	}
}

// newSource opens the configured spreadsheet.
func newSource(ctx context.Context, cfg *config.Config) (sheets.Source, error) {
	if err := cfg.RequireSheets(); err != nil {
		return nil, err
	}
	if cfg.Sheets.Source == config.SourceXLSX {
		src, err := sheets.NewXLSXSource(cfg.Sheets.XLSXPath, cfg.Sheets.SheetName)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	src, err := sheets.NewGoogleSource(ctx, sheets.GoogleConfig{
		SpreadsheetID: cfg.Sheets.ID,
		APIKey:        cfg.Sheets.APIKey,
		SheetName:     cfg.Sheets.SheetName,
		Attempts:      cfg.Sheets.Attempts,
		Timeout:       cfg.Sheets.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return src, nil
}

// newRunner creates a pipeline runner with an in-memory store. A sheet that
// cannot be opened is kept as the runner's SheetsErr, so requests that do not
// read rows still work.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config) *pipeline.Runner {
	src, err := newSource(ctx, cfg)
	runner := pipeline.NewRunner(assets.NewLoader(cfg.Assets.PublicDir, cfg.Assets.MaxSVGMB), src, c.Logger)
	runner.SheetsErr = err
	runner.Rasterizer = render.RSVG{Scale: cfg.Render.Scale, Background: cfg.Render.Background}
	runner.Options = pipeline.Options{
		VisibilityRange: cfg.Sheets.Range,
		PriceRange:      cfg.Sheets.PriceRange,
		DefaultSVGURL:   cfg.Assets.DefaultSVGURL,
	}.WithDefaults()
	return runner
}

// attachStores replaces the runner's in-memory store with the configured
// export store, history and uploader.
func (c *CLI) attachStores(ctx context.Context, runner *pipeline.Runner, cfg *config.Config) error {
	switch cfg.Export.Store {
	case "redis":
		store, err := export.NewRedisStore(ctx, export.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Export.TTL,
		})
		if err != nil {
			return err
		}
		runner.Store = store
	default:
		store, err := export.NewFileStore(cfg.Export.Folder)
		if err != nil {
			return err
		}
		runner.Store = store
	}

	if cfg.Mongo.URI != "" {
		history, err := export.NewMongoHistory(ctx, export.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err != nil {
			return err
		}
		runner.History = history
	} else {
		runner.History = export.NewMemoryHistory(100)
	}

	if cfg.MinIO.Endpoint != "" {
		uploader, err := export.NewMinIOUploader(export.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
			URLExpiry: cfg.MinIO.URLExpiry,
		})
		if err != nil {
			return err
		}
		runner.Uploader = uploader
	}
	return nil
}
