package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/menuboard/pkg/pipeline"
	"github.com/matzehuels/menuboard/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string  // output file path, "-" for stdout
	format     string  // output format: svg, png or pdf
	scale      float64 // zoom factor for png and pdf
	background string  // CSS color behind png output; empty keeps it transparent
	sheet      sheetFlags
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [svg-file]",
		Short: "Apply the spreadsheet to an SVG menu and write the result",
		Long: `Render reads a local SVG menu, shows and hides its items and fills in its
prices from the spreadsheet, then writes SVG, PNG or PDF.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := render.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], format, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the format's extension, - for stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "png", "output format: svg, png, pdf")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "zoom factor (default from config)")
	cmd.Flags().StringVar(&opts.background, "background", "", "background color for png (default transparent)")
	opts.sheet.register(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, format render.Format, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts.sheet.apply(cfg)
	if opts.scale > 0 {
		cfg.Render.Scale = opts.scale
	}
	if opts.background != "" {
		cfg.Render.Background = opts.background
	}

	runner := c.newRunner(ctx, cfg)
	defer runner.Close()

	svg, err := runner.Assets.LoadFile(input)
	if err != nil {
		return err
	}
	logger.Debugf("Loaded %s: %d bytes", input, len(svg))

	var (
		data []byte
		vis  *pipeline.VisibilityResult
	)
	err = withSteps(ctx, "opening spreadsheet", func(ctx context.Context) error {
		var err error
		data, vis, err = runner.Render(ctx, svg, format)
		return err
	})
	if err != nil {
		return err
	}
	prog.done("rendered", "file", filepath.Base(input), "format", format)

	outputPath := opts.output
	if outputPath == "" {
		outputPath = strings.TrimSuffix(input, filepath.Ext(input)) + ".menu" + format.Ext()
	}
	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}

	if outputPath != "-" {
		printSuccess("Rendered %s", filepath.Base(input))
		printStats(vis.Stats.Rows, len(vis.RawVisibleIDs), len(vis.VisibleIDs), len(vis.Prices))
		printFile(outputPath)
	}
	return nil
}

// openOutput opens path for writing; "-" writes to stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
