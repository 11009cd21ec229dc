// Package artifacts manages the results area where encoded carriers are
// published. Names are time based with a random suffix, files are created
// exclusively and never overwritten, and nothing here deletes them.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"stego-server/internal/filesystem"
)

// ErrInvalidName is returned by Open for names that do not belong to the store.
var ErrInvalidName = errors.New("invalid artifact name")

// namePattern matches names produced by newName.
var namePattern = regexp.MustCompile(`^encoded-[0-9]+-[0-9a-f]{8}\.(png|mkv)$`)

// Artifact describes one published output file.
type Artifact struct {
	Name      string    `json:"name"`
	Path      string    `json:"-"`
	URL       string    `json:"downloadUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is a results directory served under a URL prefix.
type Store struct {
	dir       string
	urlPrefix string
}

// NewStore returns a Store rooted at dir. URLs are built as urlPrefix + name.
func NewStore(dir, urlPrefix string) *Store {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Store{dir: dir, urlPrefix: urlPrefix}
}

// Dir returns the results directory.
func (s *Store) Dir() string {
	return s.dir
}

func newName(ext string) string {
	id := uuid.New()
	return fmt.Sprintf("encoded-%d-%x%s", time.Now().UnixNano(), id[:4], ext)
}

func (s *Store) artifact(name string) *Artifact {
	return &Artifact{
		Name:      name,
		Path:      filepath.Join(s.dir, name),
		URL:       s.urlPrefix + name,
		CreatedAt: time.Now(),
	}
}

// Create opens a new, exclusively created artifact file with the given
// extension (".png" or ".mkv"). The caller must close the file and call
// Discard if writing fails.
func (s *Store) Create(ext string) (*os.File, *Artifact, error) {
	for attempt := 0; attempt < 3; attempt++ {
		a := s.artifact(newName(ext))
		f, err := os.OpenFile(a.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, a, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, nil, fmt.Errorf("failed to create artifact: %w", err)
		}
	}
	return nil, nil, fmt.Errorf("failed to allocate a unique artifact name in %s", s.dir)
}

// Reserve returns a fresh artifact path without creating the file, for
// writers (ffmpeg) that refuse to overwrite an existing output.
func (s *Store) Reserve(ext string) *Artifact {
	return s.artifact(newName(ext))
}

// Discard removes a partially written artifact.
func (s *Store) Discard(a *Artifact) error {
	if a == nil {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Open resolves a published artifact name to its path, rejecting anything
// that is not a name this store could have produced.
func (s *Store) Open(name string) (string, error) {
	if !namePattern.MatchString(name) {
		return "", ErrInvalidName
	}
	path := filepath.Join(s.dir, name)
	if _, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig()); err != nil {
		return "", err
	}
	return path, nil
}
