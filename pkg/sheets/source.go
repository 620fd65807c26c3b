package sheets

import (
	"context"
	"regexp"
	"slices"
	"strings"

	errs "github.com/matzehuels/menuboard/pkg/errors"
)

// Source reads a cell range as rows of strings.
type Source interface {
	// Name identifies the backend in logs and hooks.
	Name() string

	// Values returns the rows of rng in row order.
	Values(ctx context.Context, rng string) ([][]string, error)
}

var plainSheetName = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// FormatSheetName renders a tab title for use in an A1 range. Single quotes
// are doubled, and the name is wrapped in quotes unless it is made only of
// ASCII letters, digits and "_".
func FormatSheetName(name string) string {
	escaped := strings.ReplaceAll(strings.TrimSpace(name), "'", "''")
	if plainSheetName.MatchString(escaped) {
		return escaped
	}
	return "'" + escaped + "'"
}

// HasSheet reports whether rng already names a tab.
func HasSheet(rng string) bool {
	return strings.Contains(rng, "!")
}

// QualifyRange prefixes rng with the tab chosen from titles: preferred when
// present, otherwise the first title. Ranges that already name a tab are
// returned unchanged.
func QualifyRange(rng, preferred string, titles []string) (string, error) {
	if HasSheet(rng) {
		return rng, nil
	}
	tab := ChooseSheet(preferred, titles)
	if tab == "" {
		return "", errs.New(errs.ErrCodeUpstream, "No sheet tabs found for the spreadsheet.")
	}
	return FormatSheetName(tab) + "!" + rng, nil
}

// ChooseSheet returns preferred when titles contains it, otherwise the first
// non-empty title, otherwise "".
func ChooseSheet(preferred string, titles []string) string {
	preferred = strings.TrimSpace(preferred)
	if preferred != "" && slices.Contains(titles, preferred) {
		return preferred
	}
	for _, t := range titles {
		if t != "" {
			return t
		}
	}
	return ""
}

// SplitRange separates an optional tab from the cell reference, unquoting
// the tab name. "'Menu ''24'!A3:B" yields ("Menu '24", "A3:B").
func SplitRange(rng string) (sheet, ref string) {
	rng = strings.TrimSpace(rng)
	i := strings.LastIndex(rng, "!")
	if i < 0 {
		return "", rng
	}
	sheet, ref = rng[:i], rng[i+1:]
	if len(sheet) >= 2 && strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet, ref
}

// Static is an in-memory Source keyed by range. Unknown ranges read as empty.
type Static map[string][][]string

// Name implements Source.
func (Static) Name() string { return "static" }

// Values implements Source.
func (s Static) Values(_ context.Context, rng string) ([][]string, error) {
	rows := s[rng]
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = slices.Clone(row)
	}
	return out, nil
}
