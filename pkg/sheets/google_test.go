package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/option"

	errs "github.com/matzehuels/menuboard/pkg/errors"
)

// fakeSheetsAPI serves the two Sheets v4 calls the source makes.
type fakeSheetsAPI struct {
	titles     []string
	values     map[string][][]string // keyed by the requested range
	failFirst  int                   // respond 503 to this many requests
	status     int                   // respond with this status to every request when set
	requests   atomic.Int32
	lastRanges []string
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := int(f.requests.Add(1))
	if f.status != 0 {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, f.status)
		return
	}
	if n <= f.failFirst {
		http.Error(w, `{"error":{"code":503,"message":"unavailable"}}`, http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, rng, ok := strings.Cut(r.URL.Path, "/values/"); ok {
		f.lastRanges = append(f.lastRanges, rng)
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": f.values[rng]})
		return
	}

	var sheets []map[string]any
	for _, title := range f.titles {
		sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
}

func newTestGoogleSource(t *testing.T, api *fakeSheetsAPI, sheetName string) *GoogleSource {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	src, err := NewGoogleSource(context.Background(), GoogleConfig{
		SpreadsheetID: "sheet-id",
		APIKey:        "key",
		SheetName:     sheetName,
		RetryDelay:    time.Millisecond,
	}, option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewGoogleSource: %v", err)
	}
	return src
}

func TestGoogleSourceResolvesTab(t *testing.T) {
	api := &fakeSheetsAPI{
		titles: []string{"Notes", "Lunch Menu"},
		values: map[string][][]string{
			"'Lunch Menu'!A3:B": {{"1", "true"}, {"2"}},
		},
	}
	src := newTestGoogleSource(t, api, "Lunch Menu")

	rows, err := src.Values(context.Background(), "A3:B")
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if want := [][]string{{"1", "true"}, {"2"}}; !reflect.DeepEqual(rows, want) {
		t.Errorf("Values = %q, want %q", rows, want)
	}
	if got, want := api.requests.Load(), int32(2); got != want {
		t.Errorf("requests = %d, want %d", got, want)
	}
}

func TestGoogleSourceQualifiedRangeSkipsLookup(t *testing.T) {
	api := &fakeSheetsAPI{values: map[string][][]string{"Menu!C3:C": {{"9"}}}}
	src := newTestGoogleSource(t, api, "")

	rows, err := src.Values(context.Background(), "Menu!C3:C")
	if err != nil {
		t.Fatal(err)
	}
	if want := [][]string{{"9"}}; !reflect.DeepEqual(rows, want) {
		t.Errorf("Values = %q, want %q", rows, want)
	}
	if got := api.requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestGoogleSourceRetriesTransientFailures(t *testing.T) {
	api := &fakeSheetsAPI{failFirst: 2, values: map[string][][]string{"Menu!A3:B": {{"1"}}}}
	src := newTestGoogleSource(t, api, "")

	rows, err := src.Values(context.Background(), "Menu!A3:B")
	if err != nil {
		t.Fatalf("Values: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("rows = %q, want one row", rows)
	}
	if got := api.requests.Load(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
}

func TestGoogleSourceFailures(t *testing.T) {
	tests := []struct {
		name         string
		api          *fakeSheetsAPI
		wantRequests int32
	}{
		{"forbidden is not retried", &fakeSheetsAPI{status: http.StatusForbidden}, 1},
		{"unavailable exhausts retries", &fakeSheetsAPI{failFirst: 10}, 3},
		{"no tabs", &fakeSheetsAPI{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestGoogleSource(t, tt.api, "")
			_, err := src.Values(context.Background(), "A3:B")
			if !errs.Is(err, errs.ErrCodeUpstream) {
				t.Errorf("err = %v, want UPSTREAM_UNAVAILABLE", err)
			}
			if got := tt.api.requests.Load(); got != tt.wantRequests {
				t.Errorf("requests = %d, want %d", got, tt.wantRequests)
			}
		})
	}
}

func TestNewGoogleSourceRequiresCredentials(t *testing.T) {
	_, err := NewGoogleSource(context.Background(), GoogleConfig{SpreadsheetID: "x"})
	if !errs.Is(err, errs.ErrCodeMissingConfig) {
		t.Errorf("err = %v, want MISSING_CONFIGURATION", err)
	}
}
