package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/menuboard/pkg/buildinfo"
	errs "github.com/matzehuels/menuboard/pkg/errors"
	"github.com/matzehuels/menuboard/pkg/export"
	"github.com/matzehuels/menuboard/pkg/pipeline"
)

const (
	defaultExportsLimit = 20
	maxExportsLimit     = 200
)

type healthResponse struct {
	OK    bool           `json:"ok"`
	Build buildinfo.Info `json:"build"`
}

type saveRequest struct {
	SVG        string   `json:"svg"`
	SVGURL     string   `json:"svgUrl"`
	VisibleIDs []string `json:"visibleIds"`
}

type saveResponse struct {
	OK       bool   `json:"ok"`
	FileName string `json:"fileName"`
	URL      string `json:"url,omitempty"`
}

type latestResponse struct {
	FileName  string `json:"fileName"`
	CreatedAt string `json:"createdAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{OK: true, Build: buildinfo.Current()})
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	vis, err := s.runner.Visibility(r.Context(), s.svgURL(r))
	if err != nil {
		s.fail(w, r, err, "Failed to load visibility.")
		return
	}
	writeJSON(w, http.StatusOK, vis)
}

func (s *Server) handleMenus(w http.ResponseWriter, r *http.Request) {
	menus, err := s.runner.Assets.KnownMenus()
	if err != nil {
		s.fail(w, r, err, "Failed to list menus.")
		return
	}
	writeJSON(w, http.StatusOK, menus)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if q := r.URL.Query(); q.Has("visibleIds") {
		ids = splitIDs(q.Get("visibleIds"))
	}
	svg, err := s.runner.Preview(r.Context(), s.svgURL(r), ids)
	if err != nil {
		s.fail(w, r, err, "Failed to render preview.")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(svg)
}

func (s *Server) handleSaveSVG(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large."})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON body."})
		return
	}

	res, err := s.runner.Export(r.Context(), pipeline.ExportRequest{
		SVG:        req.SVG,
		SVGURL:     req.SVGURL,
		VisibleIDs: req.VisibleIDs,
	})
	if err != nil {
		s.fail(w, r, err, "Failed to save SVG.")
		return
	}

	name := res.Artifact.Name
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Type", export.ContentTypePNG)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		w.Header().Set("X-File-Name", name)
		_, _ = w.Write(res.Artifact.Data)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{OK: true, FileName: name, URL: res.UploadURL})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	a, err := s.runner.Store.Latest(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to load latest export.")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, latestResponse{
		FileName:  a.Name,
		CreatedAt: a.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) handleLatestPNG(w http.ResponseWriter, r *http.Request) {
	a, err := s.runner.Store.Latest(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to load latest export.")
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-File-Name", a.Name)
	_, _ = w.Write(a.Data)
}

func (s *Server) handleExports(w http.ResponseWriter, r *http.Request) {
	limit := defaultExportsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer."})
			return
		}
		limit = min(n, maxExportsLimit)
	}

	if s.runner.History == nil {
		writeJSON(w, http.StatusOK, []export.Record{})
		return
	}
	records, err := s.runner.History.Recent(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err, "Failed to load exports.")
		return
	}
	if records == nil {
		records = []export.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) svgURL(r *http.Request) string {
	if u := strings.TrimSpace(r.URL.Query().Get("svgUrl")); u != "" {
		return u
	}
	return s.defaultSVGURL
}

// fail answers err. Client errors keep their message; anything else is
// logged and answered with fallback.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := errs.HTTPStatus(err)
	msg := fallback
	if errs.Public(err) {
		msg = errs.UserMessage(err)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"code", errs.GetCode(err),
			"err", err,
			"request_id", requestIDFrom(r.Context()))
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// splitIDs splits a comma-separated id list, dropping blanks.
func splitIDs(raw string) []string {
	ids := []string{}
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
