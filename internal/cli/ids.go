package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/menuboard/pkg/menu"
	"github.com/matzehuels/menuboard/pkg/render/idtree"
)

const (
	idsFormatText = "text"
	idsFormatDOT  = "dot"
	idsFormatSVG  = "svg"
)

// idsOpts holds the command-line flags for the ids command.
type idsOpts struct {
	format    string
	output    string
	withSheet bool
	sheet     sheetFlags
}

// idsCommand creates the ids command.
func (c *CLI) idsCommand() *cobra.Command {
	var opts idsOpts

	cmd := &cobra.Command{
		Use:   "ids [svg-file]",
		Short: "List the node ids of an SVG menu by base",
		Long: `Ids prints the node ids a menu template contains, grouped by base id.

With --format dot or svg the hierarchy is drawn with Graphviz. With --with-sheet
the spreadsheet is read and items are colored by visibility.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case idsFormatText, idsFormatDOT, idsFormatSVG:
			default:
				return fmt.Errorf("invalid format: %s (must be 'text', 'dot' or 'svg')", opts.format)
			}
			return c.runIDs(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", idsFormatText, "output format: text, dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "output file for dot and svg")
	cmd.Flags().BoolVar(&opts.withSheet, "with-sheet", false, "color items by spreadsheet visibility")
	opts.sheet.register(cmd)

	return cmd
}

func (c *CLI) runIDs(ctx context.Context, input string, opts *idsOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts.sheet.apply(cfg)
	runner := c.newRunner(ctx, cfg)
	defer runner.Close()

	svg, err := runner.Assets.LoadFile(input)
	if err != nil {
		return err
	}
	idx, err := menu.BuildIndex(svg)
	if err != nil {
		return err
	}

	var visible []string
	if opts.withSheet {
		vis, err := runner.VisibilityOf(ctx, svg)
		if err != nil {
			return err
		}
		visible = vis.VisibleIDs
	}

	if opts.format == idsFormatText {
		fmt.Println(idsTable(idx, visible))
		printDetail("%d bases, %d node ids", idx.Len(), idx.NodeCount())
		return nil
	}

	dot := idtree.ToDOT(idx, idtree.Options{Visible: visible, Title: filepath.Base(input)})
	data := []byte(dot)
	if opts.format == idsFormatSVG {
		if data, err = idtree.RenderSVG(ctx, dot); err != nil {
			return err
		}
	}

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if opts.output != "-" {
		printFile(opts.output)
	}
	return nil
}

// idsTable renders one row per base. When visible is non-nil, shown ids are
// highlighted and hidden ids dimmed.
func idsTable(idx *menu.Index, visible []string) string {
	shown := make(map[string]bool, len(visible))
	for _, id := range visible {
		shown[id] = true
	}

	rows := make([][]string, 0, idx.Len())
	for _, base := range idx.Bases() {
		ids, _ := idx.Get(base)
		cells := make([]string, len(ids))
		for i, id := range ids {
			switch {
			case visible == nil:
				cells[i] = id
			case shown[id]:
				cells[i] = StyleSuccess.Render(id)
			default:
				cells[i] = StyleDim.Render(id)
			}
		}
		rows = append(rows, []string{base, fmt.Sprint(len(ids)), strings.Join(cells, " ")})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Base", "Nodes", "IDs").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}
