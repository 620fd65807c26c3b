package export

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record describes one export.
type Record struct {
	ID            uuid.UUID         `json:"id"`
	FileName      string            `json:"fileName"`
	SVGURL        string            `json:"svgUrl,omitempty"`
	VisibleIDs    []string          `json:"visibleIds"`
	RawVisibleIDs []string          `json:"rawVisibleIds,omitempty"`
	Prices        map[string]string `json:"prices,omitempty"`
	Size          int               `json:"size"`
	UploadURL     string            `json:"uploadUrl,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// NewRecord returns a record for a with a fresh id.
func NewRecord(a Artifact) Record {
	return Record{
		ID:        uuid.New(),
		FileName:  a.Name,
		Size:      len(a.Data),
		CreatedAt: a.CreatedAt,
	}
}

// History is an append-only log of exports.
type History interface {
	// Add appends r.
	Add(ctx context.Context, r Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Close releases the history's resources.
	Close() error
}

// MemoryHistory keeps the last Cap records in memory.
type MemoryHistory struct {
	mu      sync.Mutex
	cap     int
	records []Record
}

// NewMemoryHistory keeps at most capacity records; non-positive means 100.
func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryHistory{cap: capacity}
}

// Add implements History.
func (h *MemoryHistory) Add(_ context.Context, r Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	if over := len(h.records) - h.cap; over > 0 {
		h.records = slices.Delete(h.records, 0, over)
	}
	return nil
}

// Recent implements History.
func (h *MemoryHistory) Recent(_ context.Context, limit int) ([]Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.records[i])
	}
	return out, nil
}

// Close implements History.
func (h *MemoryHistory) Close() error { return nil }
