package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/menuboard/pkg/menu"
	"github.com/matzehuels/menuboard/pkg/pipeline"
)

// checkOpts holds the command-line flags for the check command.
type checkOpts struct {
	watch    bool
	interval time.Duration
	sheet    sheetFlags
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var opts checkOpts

	cmd := &cobra.Command{
		Use:   "check [svg-file]",
		Short: "Show how each spreadsheet row resolves against an SVG menu",
		Long: `Check reads the spreadsheet and prints, for every row, the id it names,
whether it is visible, how many node ids it controls and its price.

With --watch the table refreshes every --interval until you quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.interval <= 0 {
				return fmt.Errorf("invalid interval: %s (must be positive)", opts.interval)
			}
			return c.runCheck(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "refresh continuously")
	cmd.Flags().DurationVar(&opts.interval, "interval", 10*time.Second, "refresh interval for --watch")
	opts.sheet.register(cmd)

	return cmd
}

func (c *CLI) runCheck(ctx context.Context, input string, opts *checkOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts.sheet.apply(cfg)
	runner := c.newRunner(ctx, cfg)
	defer runner.Close()

	// The template is re-read on every refresh so edits show up while watching.
	load := func(ctx context.Context) (*pipeline.VisibilityResult, error) {
		svg, err := runner.Assets.LoadFile(input)
		if err != nil {
			return nil, err
		}
		return runner.VisibilityOf(ctx, svg)
	}

	if opts.watch {
		model := newCheckModel(ctx, input, opts.interval, load)
		_, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
		return err
	}

	var vis *pipeline.VisibilityResult
	err = withSteps(ctx, "opening spreadsheet", func(ctx context.Context) error {
		var err error
		vis, err = load(ctx)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Println(checkTable(vis))
	printStats(vis.Stats.Rows, len(vis.RawVisibleIDs), len(vis.VisibleIDs), len(vis.Prices))
	if unmatched := unmatchedRows(vis); unmatched > 0 {
		printWarning("%d visible rows control no node id in %s", unmatched, input)
	}
	return nil
}

// unmatchedRows counts visible rows that expand to nothing.
func unmatchedRows(vis *pipeline.VisibilityResult) int {
	n := 0
	for _, e := range vis.Entries {
		if e.Visible && len(e.ExpandedIDs) == 0 {
			n++
		}
	}
	return n
}

// checkTable renders one line per spreadsheet row.
func checkTable(vis *pipeline.VisibilityResult) string {
	rows := make([][]string, 0, len(vis.Entries))
	for _, e := range vis.Entries {
		shown := "no"
		if e.Visible {
			shown = "yes"
		}
		id := e.ID
		if id == "" {
			id = "—"
		}
		price := vis.Prices[menu.PriceKey(e.Position)]
		rows = append(rows, []string{fmt.Sprint(e.Position), id, shown, fmt.Sprint(len(e.ExpandedIDs)), price})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Row", "ID", "Visible", "Nodes", "Price").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if row >= len(vis.Entries) {
				return base
			}
			e := vis.Entries[row]
			switch {
			case !e.Visible:
				return base.Foreground(colorDim)
			case len(e.ExpandedIDs) == 0:
				return base.Foreground(colorYellow)
			case col == 2:
				return base.Foreground(colorGreen)
			}
			return base
		}).
		Render()
}
