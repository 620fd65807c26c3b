package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/menuboard/pkg/config"
	"github.com/matzehuels/menuboard/pkg/menu"
	"github.com/matzehuels/menuboard/pkg/observability"
	"github.com/matzehuels/menuboard/pkg/pipeline"
)

const testMenu = `<svg xmlns="http://www.w3.org/2000/svg">
  <g id="1"><text id="1.1">Margherita</text></g>
  <g id="2"><text id="2.1">Calzone</text></g>
  <text id="price1">old</text>
</svg>`

func writeFixtures(t *testing.T) (svgPath, xlsxPath string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	svgPath = filepath.Join(dir, "menu.svg")
	if err := os.WriteFile(svgPath, []byte(testMenu), 0o644); err != nil {
		t.Fatal(err)
	}

	f := excelize.NewFile()
	defer f.Close()
	cells := map[string]any{
		"A3": "1", "B3": "yes", "C3": 12,
		"A4": "2", "B4": "no",
		"A5": "9", "B5": "yes",
	}
	for cell, v := range cells {
		if err := f.SetCellValue("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	xlsxPath = filepath.Join(dir, "rows.xlsx")
	if err := f.SaveAs(xlsxPath); err != nil {
		t.Fatal(err)
	}
	return svgPath, xlsxPath
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(observability.Reset)
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"serve", "render", "ids", "check", "version"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRenderCommandSVG(t *testing.T) {
	svgPath, xlsxPath := writeFixtures(t)
	out := filepath.Join(filepath.Dir(svgPath), "out", "menu.svg")

	if err := execute(t, "render", svgPath, "--rows", xlsxPath, "-f", "svg", "-o", out); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, ">12 zł<") {
		t.Errorf("price not applied:\n%s", s)
	}
	if !strings.Contains(s, `id="2" display="none"`) {
		t.Errorf("row 2 not hidden:\n%s", s)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	svgPath, xlsxPath := writeFixtures(t)
	tests := []struct {
		name string
		args []string
	}{
		{"bad format", []string{"render", svgPath, "--rows", xlsxPath, "-f", "gif"}},
		{"missing svg", []string{"render", "nope.svg", "--rows", xlsxPath, "-f", "svg"}},
		{"missing workbook", []string{"render", svgPath, "--rows", "nope.xlsx", "-f", "svg", "-o", "x.svg"}},
		{"no args", []string{"render"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIDsCommandDOT(t *testing.T) {
	svgPath, xlsxPath := writeFixtures(t)
	out := filepath.Join(filepath.Dir(svgPath), "ids.dot")

	if err := execute(t, "ids", svgPath, "-f", "dot", "-o", out, "--with-sheet", "--rows", xlsxPath); err != nil {
		t.Fatalf("ids: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") || !strings.Contains(string(data), `"1.1"`) {
		t.Errorf("unexpected DOT:\n%s", data)
	}
	if err := execute(t, "ids", svgPath, "-f", "yaml"); err == nil {
		t.Error("invalid format accepted")
	}
}

func TestCheckCommandInterval(t *testing.T) {
	svgPath, xlsxPath := writeFixtures(t)
	if err := execute(t, "check", svgPath, "--rows", xlsxPath, "--interval", "0s"); err == nil {
		t.Error("zero interval accepted")
	}
}

func TestSheetFlagsApply(t *testing.T) {
	cfg, err := config.Load(config.Options{Environment: map[string]string{}})
	if err != nil {
		t.Fatal(err)
	}
	sheetFlags{xlsx: "rows.xlsx", sheetName: "Menu", rng: "A2:B", priceRange: "D2:D"}.apply(cfg)

	if cfg.Sheets.Source != config.SourceXLSX || cfg.Sheets.XLSXPath != "rows.xlsx" {
		t.Errorf("source = %q %q", cfg.Sheets.Source, cfg.Sheets.XLSXPath)
	}
	if cfg.Sheets.SheetName != "Menu" || cfg.Sheets.Range != "A2:B" || cfg.Sheets.PriceRange != "D2:D" {
		t.Errorf("sheets = %+v", cfg.Sheets)
	}
}

func TestNewRunnerWithoutSheet(t *testing.T) {
	cfg, err := config.Load(config.Options{Environment: map[string]string{}})
	if err != nil {
		t.Fatal(err)
	}
	runner := New(io.Discard, LogInfo).newRunner(context.Background(), cfg)
	if runner.Sheets != nil || runner.SheetsErr == nil {
		t.Fatalf("Sheets = %v, SheetsErr = %v", runner.Sheets, runner.SheetsErr)
	}
	if runner.Options.VisibilityRange != "A3:B" || runner.Options.PriceRange != "C3:C" {
		t.Errorf("Options = %+v", runner.Options)
	}
}

func testVisibility() *pipeline.VisibilityResult {
	return &pipeline.VisibilityResult{
		VisibleIDs:    []string{"1", "1.1"},
		RawVisibleIDs: []string{"1", "9"},
		Prices:        menu.PriceMap{"price1": "12 zł"},
		Entries: []menu.Entry{
			{Position: 1, ID: "1", ExpandedIDs: []string{"1", "1.1"}, Visible: true},
			{Position: 2, ID: "2", ExpandedIDs: []string{"2", "2.1"}, Visible: false},
			{Position: 3, ID: "9", ExpandedIDs: []string{}, Visible: true},
		},
		Stats: pipeline.Stats{Rows: 3},
	}
}

func TestCheckTable(t *testing.T) {
	vis := testVisibility()
	out := checkTable(vis)
	for _, want := range []string{"Row", "Price", "12 zł", "yes", "no"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if got := unmatchedRows(vis); got != 1 {
		t.Errorf("unmatchedRows = %d, want 1", got)
	}
}

func TestStatsLine(t *testing.T) {
	tests := []struct {
		rows, visible, nodes, prices int
		want                         string
	}{
		{0, 0, 0, 0, "0 rows"},
		{1, 1, 1, 1, "1 row · 1 visible · 1 node · 1 price"},
		{12, 8, 23, 0, "12 rows · 8 visible · 23 nodes"},
	}
	for _, tt := range tests {
		if got := statsLine(tt.rows, tt.visible, tt.nodes, tt.prices); got != tt.want {
			t.Errorf("statsLine(%d, %d, %d, %d) = %q, want %q", tt.rows, tt.visible, tt.nodes, tt.prices, got, tt.want)
		}
	}
}

func TestIDsTable(t *testing.T) {
	idx := menu.NewIndex("1", "1.1", "2.1")
	out := idsTable(idx, nil)
	for _, want := range []string{"Base", "1.1", "2.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestCheckModel(t *testing.T) {
	calls := 0
	load := func(context.Context) (*pipeline.VisibilityResult, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("sheet unavailable")
		}
		return testVisibility(), nil
	}
	var m tea.Model = newCheckModel(context.Background(), "menu.svg", time.Minute, load)

	msg := m.Init()()
	m, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("result should schedule the next tick")
	}
	if view := m.View(); !strings.Contains(view, "12 zł") || !strings.Contains(view, "next in 1m0s") {
		t.Errorf("view after load:\n%s", view)
	}

	m, cmd = m.Update(checkTickMsg{})
	if cmd == nil {
		t.Fatal("tick should start a reload")
	}
	m, _ = m.Update(cmd())
	view := m.View()
	if !strings.Contains(view, "sheet unavailable") || !strings.Contains(view, "12 zł") {
		t.Errorf("failed reload should keep the last table and show the error:\n%s", view)
	}

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil || m.View() != "" {
		t.Error("q should quit")
	}
}
