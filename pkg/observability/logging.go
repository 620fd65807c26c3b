package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements all hook interfaces by writing to a logger. Progress is
// logged at debug level, so it only shows with --verbose; failures are warnings.
type LogHooks struct {
	Logger *log.Logger
}

var (
	_ PipelineHooks = LogHooks{}
	_ StoreHooks    = LogHooks{}
	_ HTTPHooks     = LogHooks{}
)

func (h LogHooks) OnFetchStart(_ context.Context, source, rng string) {
	h.Logger.Debug("fetch range", "source", source, "range", rng)
}

func (h LogHooks) OnFetchComplete(_ context.Context, source, rng string, rows int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("fetch range failed", "source", source, "range", rng, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("fetched range", "source", source, "range", rng, "rows", rows, "duration", d)
}

func (h LogHooks) OnReconcile(_ context.Context, rows, visibleIDs int) {
	h.Logger.Debug("reconciled rows", "rows", rows, "visible", visibleIDs)
}

func (h LogHooks) OnRenderStart(_ context.Context, format string) {
	h.Logger.Debug("render", "format", format)
}

func (h LogHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("render failed", "format", format, "err", err)
		return
	}
	h.Logger.Debug("rendered", "format", format, "bytes", size, "duration", d)
}

func (h LogHooks) OnSave(_ context.Context, backend string, size int) {
	h.Logger.Debug("saved artifact", "backend", backend, "bytes", size)
}

func (h LogHooks) OnLatest(_ context.Context, backend string, found bool) {
	h.Logger.Debug("latest artifact", "backend", backend, "found", found)
}

func (h LogHooks) OnUpload(_ context.Context, backend string, size int, err error) {
	if err != nil {
		h.Logger.Warn("upload failed", "backend", backend, "err", err)
		return
	}
	h.Logger.Debug("uploaded artifact", "backend", backend, "bytes", size)
}

func (h LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h LogHooks) OnResponse(_ context.Context, method, host, path string, statusCode int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "host", host, "path", path, "status", statusCode, "duration", d)
}

func (h LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Warn("http request failed", "method", method, "host", host, "path", path, "err", err)
}
