// Package export stores rendered menus and keeps a record of every export.
//
// An export produces one [Artifact], a PNG named svg-<unix millis>.png. The
// artifact is saved to a [Store], optionally uploaded through an [Uploader],
// and described by a [Record] appended to a [History].
//
// Stores:
//   - [FileStore] writes into SAVED_SVG_FOLDER.
//   - [RedisStore] keeps artifacts with a TTL and a pointer to the latest
//     one, so several server instances can feed the same display screens.
//   - [MemoryStore] keeps artifacts in process, for tests and the CLI.
//
// Every store answers [Store.Latest], which backs the display endpoints.
package export

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	errs "github.com/matzehuels/menuboard/pkg/errors"
)

// Artifact is one exported image.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// Store persists artifacts.
type Store interface {
	// Save stores a. An existing artifact with the same name is replaced.
	Save(ctx context.Context, a Artifact) error

	// Get returns the artifact called name, or NOT_FOUND.
	Get(ctx context.Context, name string) (Artifact, error)

	// Latest returns the most recent artifact, or NOT_FOUND when there is none.
	Latest(ctx context.Context) (Artifact, error)

	// Close releases the store's resources.
	Close() error
}

// ContentTypePNG is the content type of exported artifacts.
const ContentTypePNG = "image/png"

var namePattern = regexp.MustCompile(`^svg-([0-9]+)\.png$`)

// NewArtifact names png after t and wraps it.
func NewArtifact(png []byte, t time.Time) Artifact {
	return Artifact{
		Name:        FileName(t),
		ContentType: ContentTypePNG,
		Data:        png,
		CreatedAt:   t,
	}
}

// Sequence hands out artifact times that strictly increase at millisecond
// resolution, so exports made within the same millisecond get distinct names.
// The zero value is ready to use and safe for concurrent use.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

// Next returns t, or one millisecond past the previous result when t would
// not be later than it.
func (s *Sequence) Next(t time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := t.UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return time.UnixMilli(ms)
}

// FileName returns the export file name for t.
func FileName(t time.Time) string {
	return fmt.Sprintf("svg-%d.png", t.UnixMilli())
}

// ParseFileName validates an export file name and returns the time it encodes.
// Anything else is INVALID_PATH, so names can be used to build paths and keys.
func ParseFileName(name string) (time.Time, error) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, errs.New(errs.ErrCodeInvalidPath, "invalid export name %q", name)
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, errs.Wrap(errs.ErrCodeInvalidPath, err, "invalid export name %q", name)
	}
	return time.UnixMilli(ms), nil
}

func notFound(name string) error {
	if name == "" {
		return errs.New(errs.ErrCodeNotFound, "no exports yet")
	}
	return errs.New(errs.ErrCodeNotFound, "export %s not found", name)
}
