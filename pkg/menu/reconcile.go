package menu

import (
	"strconv"
	"strings"
)

// Entry is the reconciled form of one spreadsheet row.
type Entry struct {
	Position    int      // 1-based row position within the fetched range
	ID          string   // resolved identifier, "#" stripped
	ExpandedIDs []string // concrete node ids the row controls
	Visible     bool
}

// Reconciliation is the result of reconciling a visibility range.
type Reconciliation struct {
	// Entries holds one entry per row, in row order.
	Entries []Entry

	// VisibleIDs are the expanded node ids of all visible rows, in row order
	// without duplicates. This is the set applied to the document.
	VisibleIDs []string

	// RawVisibleIDs are the resolved, unexpanded ids of visible rows, in row
	// order, empty ids removed. This is what status lines show and what
	// clients send back on export.
	RawVisibleIDs []string
}

// Reconcile resolves each row's id and visibility flag and expands it through idx.
//
// Column A (cell 0) is assumed to hold the id and column B (cell 1) the flag,
// unless [SwapColumns] says the row is transposed. Rows never fail: anything
// that cannot be matched simply contributes no node ids.
func Reconcile(rows [][]string, idx *Index) Reconciliation {
	if idx == nil {
		idx = NewIndex()
	}
	rec := Reconciliation{Entries: make([]Entry, 0, len(rows))}
	seen := make(map[string]bool)

	for i, row := range rows {
		entry := ReconcileRow(row, i+1, idx)
		rec.Entries = append(rec.Entries, entry)
		if !entry.Visible {
			continue
		}
		if strings.TrimSpace(entry.ID) != "" {
			rec.RawVisibleIDs = append(rec.RawVisibleIDs, entry.ID)
		}
		for _, id := range entry.ExpandedIDs {
			if !seen[id] {
				seen[id] = true
				rec.VisibleIDs = append(rec.VisibleIDs, id)
			}
		}
	}
	return rec
}

// ReconcileRow resolves a single row at the given 1-based position.
func ReconcileRow(row []string, position int, idx *Index) Entry {
	a := strings.TrimSpace(cell(row, 0))
	b := strings.TrimSpace(cell(row, 1))

	idA, idB := normalizeID(a), normalizeID(b)
	id, flag := idA, b
	if SwapColumns(isBooleanLike(a), IsNodeID(idA), isBooleanLike(b), IsNodeID(idB)) {
		id, flag = idB, a
	}

	return Entry{
		Position:    position,
		ID:          id,
		ExpandedIDs: Expand(id, position, idx),
		Visible:     ParseVisible(flag),
	}
}

// SwapColumns is the column disambiguation table. It reports whether column B
// holds the id and column A the flag:
//
//	bIsID && (aIsBool || !aIsID)
//
// Whether column B is boolean-like never changes the outcome; it is accepted so
// callers can pass the four facts they computed for a row as they are.
func SwapColumns(aIsBool, aIsID, bIsBool, bIsID bool) bool {
	return bIsID && (aIsBool || !aIsID)
}

// ParseVisible interprets a visibility flag. An empty flag means visible;
// otherwise only true, 1 and yes (any case) are visible.
func ParseVisible(flag string) bool {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// Expand returns the node ids a row controls:
//
//  1. the index list when id is a known base,
//  2. else the index list of the row position when that is a known base,
//  3. else id itself when it is a node id (a leaf outside any group),
//  4. else nothing.
func Expand(id string, position int, idx *Index) []string {
	id = strings.TrimSpace(id)
	if id != "" {
		if ids, ok := idx.Get(id); ok {
			return ids
		}
	}
	if ids, ok := idx.Get(strconv.Itoa(position)); ok {
		return ids
	}
	if id != "" && IsNodeID(id) {
		return []string{id}
	}
	return []string{}
}

// ExpandIDs expands client-supplied ids through idx: known bases become their
// node lists, anything else passes through unchanged. Empty ids are dropped.
func ExpandIDs(ids []string, idx *Index) []string {
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if expanded, ok := idx.Get(id); ok {
			out = append(out, expanded...)
			continue
		}
		out = append(out, id)
	}
	return out
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func normalizeID(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "#")
}

func isBooleanLike(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false", "1", "0", "yes", "no":
		return true
	}
	return false
}
