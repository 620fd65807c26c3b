package errors

import (
	"strings"
	"unicode"
)

// AssetPrefix is the URL prefix under which menu SVGs are served.
const AssetPrefix = "/assets/"

// ValidateAssetURL validates a menu SVG URL for safety.
// The URL must point at an .svg file below /assets/ and must not be able to
// escape that directory once joined to the public root.
//
// Validation rules:
//   - URL cannot be empty
//   - Must start with /assets/ and end with .svg (case-insensitive)
//   - No null bytes or control characters
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateAssetURL(url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return New(ErrCodeInvalidPath, "SVG URL cannot be empty")
	}

	const maxURLLength = 500
	if len(url) > maxURLLength {
		return New(ErrCodeInvalidPath, "SVG URL too long (max %d characters)", maxURLLength)
	}

	for _, r := range url {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "SVG URL contains invalid characters")
		}
	}

	if !strings.HasPrefix(url, AssetPrefix) || !strings.HasSuffix(strings.ToLower(url), ".svg") {
		return New(ErrCodeInvalidPath, "invalid SVG URL: %q", url)
	}

	if strings.Contains(url, "..") {
		return New(ErrCodeInvalidPath, "SVG URL cannot contain path traversal sequences (..)")
	}

	if strings.Contains(url, "\\") {
		return New(ErrCodeInvalidPath, "SVG URL cannot contain backslashes")
	}

	return nil
}

// ValidateSVGPayload checks that a client-supplied document looks like an SVG root.
func ValidateSVGPayload(svg string) error {
	if !strings.HasPrefix(strings.TrimSpace(svg), "<svg") {
		return New(ErrCodeInvalidInput, "Invalid SVG payload.")
	}
	return nil
}
