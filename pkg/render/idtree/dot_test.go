package idtree

import (
	"strings"
	"testing"

	"github.com/matzehuels/menuboard/pkg/menu"
)

func TestToDOT(t *testing.T) {
	idx := menu.NewIndex("3", "3.1", "3.1.2", "4.1", "4.2.1")
	dot := ToDOT(idx, Options{})

	for _, want := range []string{
		"digraph G",
		`"menu" -> "3"`,
		`"menu" -> "4"`,
		`"3" -> "3.1"`,
		`"3.1" -> "3.1.2"`,
		`"4" -> "4.1"`,
		`"4" -> "4.2.1"`,
		`"4" [label="4", style="rounded,dashed"]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %s\n%s", want, dot)
		}
	}
	if strings.Contains(dot, `"3" [label="3", style="rounded,dashed"]`) {
		t.Error("literal base drawn as synthetic")
	}
	if strings.Contains(dot, "fillcolor=palegreen") {
		t.Error("colored without a visible set")
	}
}

func TestToDOTVisibility(t *testing.T) {
	idx := menu.NewIndex("1.1", "1.2")
	dot := ToDOT(idx, Options{Visible: []string{"1.1"}, Title: "Lunch"})

	if !strings.Contains(dot, `"1.1" [label="1.1", fillcolor=palegreen]`) {
		t.Errorf("visible node not highlighted:\n%s", dot)
	}
	if !strings.Contains(dot, `"1.2" [label="1.2", fillcolor=lightgrey`) {
		t.Errorf("hidden node not greyed:\n%s", dot)
	}
	if !strings.Contains(dot, `label="Lunch"`) {
		t.Error("title missing")
	}
}

func TestParentOf(t *testing.T) {
	present := map[string]bool{"2.1": true, "2.1.1.4": true}
	tests := map[string]string{
		"2.1":       "2",
		"2.1.1.4":   "2.1",
		"2.1.1.4.9": "2.1.1.4",
		"2.7":       "2",
	}
	for id, want := range tests {
		if got := parentOf(id, present); got != want {
			t.Errorf("parentOf(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if !strings.HasSuffix(out, "<g/></svg>") {
		t.Errorf("body changed: %s", out)
	}
}
