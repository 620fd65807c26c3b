package menu

import (
	"slices"
)

// Index maps a base segment to every node id sharing that base, in numeric order.
//
// For a document with ids "3", "3.10", "3.2" and "4.1" the index holds
//
//	"3" -> ["3", "3.2", "3.10"]
//	"4" -> ["4.1"]
//
// A base only has an entry when at least one node id with that base exists;
// the base itself appears in its list only if an element literally carries it.
type Index struct {
	bases []string
	ids   map[string][]string
}

// BuildIndex parses svg and indexes its node ids.
// Ids that are not dotted numeric paths are skipped.
func BuildIndex(svg []byte) (*Index, error) {
	doc, err := ParseDocument(svg)
	if err != nil {
		return nil, err
	}
	return doc.Index(), nil
}

// NewIndex builds an index from a list of ids, applying the same filtering
// and ordering as [BuildIndex].
func NewIndex(ids ...string) *Index {
	b := newIndexBuilder()
	for _, id := range ids {
		b.add(id)
	}
	return b.build()
}

// Get returns the ordered node ids for base. The returned slice is a copy.
func (x *Index) Get(base string) ([]string, bool) {
	ids, ok := x.ids[base]
	if !ok {
		return nil, false
	}
	return slices.Clone(ids), true
}

// Has reports whether base has an entry.
func (x *Index) Has(base string) bool {
	_, ok := x.ids[base]
	return ok
}

// Bases returns all bases in numeric order.
func (x *Index) Bases() []string {
	return slices.Clone(x.bases)
}

// Len returns the number of bases.
func (x *Index) Len() int {
	return len(x.bases)
}

// NodeCount returns the number of distinct node ids across all bases.
func (x *Index) NodeCount() int {
	n := 0
	for _, ids := range x.ids {
		n += len(ids)
	}
	return n
}

// All returns every node id, grouped by base in numeric order.
func (x *Index) All() []string {
	all := make([]string, 0, x.NodeCount())
	for _, base := range x.bases {
		all = append(all, x.ids[base]...)
	}
	return all
}

type indexBuilder struct {
	ids  map[string][]string
	seen map[string]bool
}

func newIndexBuilder() *indexBuilder {
	return &indexBuilder{ids: make(map[string][]string), seen: make(map[string]bool)}
}

func (b *indexBuilder) add(id string) {
	if !IsNodeID(id) || b.seen[id] {
		return
	}
	b.seen[id] = true
	base := BaseOf(id)
	b.ids[base] = append(b.ids[base], id)
}

func (b *indexBuilder) build() *Index {
	bases := make([]string, 0, len(b.ids))
	for base, ids := range b.ids {
		slices.SortStableFunc(ids, CompareNodeIDs)
		bases = append(bases, base)
	}
	slices.SortFunc(bases, func(a, b string) int {
		if c := CompareNodeIDs(a, b); c != 0 {
			return c
		}
		return len(a) - len(b)
	})
	return &Index{bases: bases, ids: b.ids}
}
