// Package assets resolves and reads menu SVG templates from the public directory.
//
// Templates are addressed by their URL as the browser sees them, for example
// "/assets/menu1.svg". Only files below PUBLIC_DIR/assets are reachable.
package assets

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	errs "github.com/matzehuels/menuboard/pkg/errors"
)

// DefaultMaxMB is the size, in whole megabytes, at which a template is refused.
const DefaultMaxMB = 270

// Loader reads templates below PublicDir/assets.
type Loader struct {
	PublicDir string
	MaxMB     int
}

// NewLoader returns a loader for publicDir. A non-positive maxMB selects DefaultMaxMB.
func NewLoader(publicDir string, maxMB int) *Loader {
	if maxMB <= 0 {
		maxMB = DefaultMaxMB
	}
	return &Loader{PublicDir: publicDir, MaxMB: maxMB}
}

// Dir returns the assets directory.
func (l *Loader) Dir() string {
	return filepath.Join(l.PublicDir, strings.Trim(errs.AssetPrefix, "/"))
}

// Path validates url and returns the file it names.
func (l *Loader) Path(url string) (string, error) {
	if err := errs.ValidateAssetURL(url); err != nil {
		return "", err
	}
	rel := strings.TrimLeft(strings.TrimSpace(url), "/")
	resolved := filepath.Join(l.PublicDir, filepath.FromSlash(rel))

	inside, err := filepath.Rel(l.Dir(), resolved)
	if err != nil || inside == "." || strings.HasPrefix(inside, "..") {
		return "", errs.New(errs.ErrCodeInvalidPath, "invalid SVG URL: %q", url)
	}
	return resolved, nil
}

// Load reads the template at url.
//
// Files whose size rounds to MaxMB megabytes or more are refused with
// SOURCE_TOO_LARGE before being read; such files usually embed base64 images.
func (l *Loader) Load(url string) ([]byte, error) {
	path, err := l.Path(url)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeNotFound, err, "SVG not found: %s", url)
		}
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "stat %s", url)
	}
	if info.IsDir() {
		return nil, errs.New(errs.ErrCodeNotFound, "SVG not found: %s", url)
	}
	if err := l.checkSize(filepath.Base(path), info.Size()); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "read %s", url)
	}
	return data, nil
}

// LoadFile reads a template from a local path, outside the assets
// directory, with the same size guard as Load.
func (l *Loader) LoadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrCodeNotFound, err, "SVG not found: %s", path)
		}
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "stat %s", path)
	}
	if info.IsDir() {
		return nil, errs.New(errs.ErrCodeInvalidPath, "%s is a directory", path)
	}
	if err := l.checkSize(filepath.Base(path), info.Size()); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "read %s", path)
	}
	return data, nil
}

func (l *Loader) checkSize(name string, size int64) error {
	maxMB := l.MaxMB
	if maxMB <= 0 {
		maxMB = DefaultMaxMB
	}
	sizeMB := int(math.Round(float64(size) / 1024 / 1024))
	if sizeMB >= maxMB {
		return errs.New(errs.ErrCodeSourceTooLarge,
			"%s is %dMB. Optimize the SVG (remove embedded images/base64, use linked images, "+
				"or export optimized SVG) so it is smaller before loading/saving.", name, sizeMB)
	}
	return nil
}

// Menu is a template offered to clients.
type Menu struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// KnownMenus lists the .svg files directly inside the assets directory,
// sorted by name. A missing directory yields an empty list.
func (l *Loader) KnownMenus() ([]Menu, error) {
	entries, err := os.ReadDir(l.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return []Menu{}, nil
		}
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "list assets")
	}

	menus := []Menu{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".svg") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		menus = append(menus, Menu{Name: name, URL: errs.AssetPrefix + name, Size: info.Size()})
	}
	slices.SortFunc(menus, func(a, b Menu) int { return strings.Compare(a.Name, b.Name) })
	return menus, nil
}
