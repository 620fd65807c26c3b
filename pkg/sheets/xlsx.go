package sheets

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	errs "github.com/matzehuels/menuboard/pkg/errors"
)

// XLSXSource reads ranges from a local workbook. The file is opened on every
// call so edits are picked up without a restart.
type XLSXSource struct {
	Path      string
	SheetName string // preferred tab; first tab when empty or absent
}

// NewXLSXSource returns a source for the workbook at path.
func NewXLSXSource(path, sheetName string) (*XLSXSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errs.New(errs.ErrCodeMissingConfig, "Missing XLSX_PATH.")
	}
	return &XLSXSource{Path: path, SheetName: sheetName}, nil
}

// Name implements Source.
func (x *XLSXSource) Name() string { return "xlsx" }

// Values implements Source. Like the Sheets API, trailing empty cells and
// trailing empty rows are omitted.
func (x *XLSXSource) Values(ctx context.Context, rng string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(x.Path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "open workbook %s", x.Path)
	}
	defer f.Close()

	sheet, ref := SplitRange(rng)
	if sheet == "" {
		sheet = ChooseSheet(x.SheetName, f.GetSheetList())
		if sheet == "" {
			return nil, errs.New(errs.ErrCodeUpstream, "No sheet tabs found for the spreadsheet.")
		}
	}

	bounds, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}

	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "read sheet %s", sheet)
	}
	return bounds.slice(all), nil
}

// Bounds is a parsed A1 reference. Columns and rows are 1-based and
// inclusive; a zero ToRow means the range is open towards the bottom.
type Bounds struct {
	FromCol, FromRow int
	ToCol, ToRow     int
}

var cellPart = regexp.MustCompile(`^([A-Za-z]{1,3})([0-9]*)$`)

// ParseRef parses "A3:B", "C3:C", "A1:B10", "A:B" or a single cell "B2".
func ParseRef(ref string) (Bounds, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(ref), ":")
	if !ok {
		to = from
	}

	c1, r1, err := parseCell(from)
	if err != nil {
		return Bounds{}, err
	}
	c2, r2, err := parseCell(to)
	if err != nil {
		return Bounds{}, err
	}

	if r1 == 0 {
		r1 = 1
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 != 0 && r2 < r1 {
		r1, r2 = r2, r1
	}
	return Bounds{FromCol: c1, FromRow: r1, ToCol: c2, ToRow: r2}, nil
}

func parseCell(s string) (col, row int, err error) {
	m := cellPart.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, errs.New(errs.ErrCodeInvalidInput, "invalid cell reference %q", s)
	}
	name := strings.ToUpper(m[1])
	if m[2] != "" {
		col, row, err = excelize.CellNameToCoordinates(name + m[2])
	} else {
		col, err = excelize.ColumnNameToNumber(name)
	}
	if err != nil {
		return 0, 0, errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid cell reference %q", s)
	}
	return col, row, nil
}

func (b Bounds) slice(all [][]string) [][]string {
	var rows [][]string
	for r := b.FromRow; r <= len(all); r++ {
		if b.ToRow != 0 && r > b.ToRow {
			break
		}
		src := all[r-1]
		var cells []string
		for c := b.FromCol; c <= b.ToCol && c <= len(src); c++ {
			cells = append(cells, src[c-1])
		}
		rows = append(rows, trimCells(cells))
	}
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows
}

func trimCells(cells []string) []string {
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	if cells == nil {
		return []string{}
	}
	return cells
}

// String renders the bounds back as an A1 reference.
func (b Bounds) String() string {
	from, _ := excelize.CoordinatesToCellName(b.FromCol, b.FromRow)
	to, _ := excelize.ColumnNumberToName(b.ToCol)
	if b.ToRow != 0 {
		to += strconv.Itoa(b.ToRow)
	}
	return from + ":" + to
}
