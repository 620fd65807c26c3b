package menu

import (
	"regexp"
	"strings"
)

var nodeIDPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// IsNodeID reports whether s is a dotted numeric menu id such as "3" or "3.2.1".
// Surrounding whitespace is not trimmed.
func IsNodeID(s string) bool {
	return nodeIDPattern.MatchString(s)
}

// BaseOf returns the first dotted segment of id ("3" for "3.2.1").
func BaseOf(id string) string {
	base, _, _ := strings.Cut(id, ".")
	return base
}

// IsAncestor reports whether parent is a strict dot-prefix of child.
func IsAncestor(parent, child string) bool {
	return len(child) > len(parent) && strings.HasPrefix(child, parent+".")
}

// CompareNodeIDs orders node ids by the numeric value of each segment.
// Missing trailing segments count as zero, so "3" and "3.0" compare equal.
// Segments are compared as arbitrary-precision integers.
func CompareNodeIDs(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := range max(len(as), len(bs)) {
		if c := compareSegment(segment(as, i), segment(bs, i)); c != 0 {
			return c
		}
	}
	return 0
}

func segment(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return "0"
}

// compareSegment compares two digit strings numerically without overflow.
func compareSegment(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
