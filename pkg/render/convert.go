package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	errs "github.com/matzehuels/menuboard/pkg/errors"
)

// Format is an output format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "svg", "png" or "pdf" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatSVG, FormatPNG, FormatPDF:
		return f, nil
	default:
		return "", errs.New(errs.ErrCodeInvalidInput, "unsupported format %q (want svg, png or pdf)", s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/svg+xml"
	}
}

// Ext returns the file extension of f including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Rasterizer converts SVG markup to another format.
type Rasterizer interface {
	Render(ctx context.Context, svg []byte, format Format) ([]byte, error)
}

// RSVG converts with the rsvg-convert binary.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
type RSVG struct {
	// Binary overrides the executable, default "rsvg-convert".
	Binary string
	// Scale is the zoom factor; 2.0 produces a 2x resolution image. Zero means 1.
	Scale float64
	// Background is a CSS color painted behind the image; empty keeps it transparent.
	Background string
}

// Render implements Rasterizer. SVG input is returned unchanged for FormatSVG.
func (r RSVG) Render(ctx context.Context, svg []byte, format Format) ([]byte, error) {
	switch format {
	case FormatSVG:
		return svg, nil
	case FormatPNG, FormatPDF:
	default:
		return nil, errs.New(errs.ErrCodeInvalidInput, "unsupported format %q", format)
	}

	bin := r.binary()
	if _, err := exec.LookPath(bin); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	cmd := exec.CommandContext(ctx, bin, r.args(format)...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "rsvg-convert: %s", strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}

func (r RSVG) binary() string {
	if r.Binary != "" {
		return r.Binary
	}
	return "rsvg-convert"
}

func (r RSVG) args(format Format) []string {
	scale := r.Scale
	if scale <= 0 {
		scale = 1
	}
	args := []string{"-f", string(format), "-z", fmt.Sprintf("%.2f", scale)}
	if r.Background != "" && format == FormatPNG {
		args = append(args, "-b", r.Background)
	}
	return args
}
