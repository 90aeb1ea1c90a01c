// Package photos stores progress photos on the local filesystem.
package photos

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxSize is the largest accepted photo (5 MB).
const MaxSize = 5 << 20

var (
	// ErrTooLarge is returned when a photo exceeds MaxSize.
	ErrTooLarge = errors.New("photos: file too large")

	// ErrUnsupportedType is returned for content that is not an allowed image.
	ErrUnsupportedType = errors.New("photos: unsupported file type")

	// ErrInvalidPath is returned for names outside the store or another user's directory.
	ErrInvalidPath = errors.New("photos: invalid path")
)

// allowedTypes maps sniffed MIME types to file extensions.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store saves photos under Dir/<userID>/<uuid><ext>. Stored names are
// relative to Dir and use forward slashes.
type Store struct {
	Dir string
}

// New returns a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("photos: create dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// DetectType sniffs the image type from the first bytes of content and
// returns the file extension to store it under.
func DetectType(head []byte) (string, error) {
	ext, ok := allowedTypes[http.DetectContentType(head)]
	if !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// Save reads a photo from r and stores it for userID, returning the stored
// name. Content over MaxSize or of an unsupported type is rejected and
// nothing is written.
func (s *Store) Save(userID int64, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("photos: read upload: %w", err)
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	ext, err := DetectType(head)
	if err != nil {
		return "", err
	}

	userDir := filepath.Join(s.Dir, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", fmt.Errorf("photos: create user dir: %w", err)
	}

	name := uuid.NewString() + ext
	dest := filepath.Join(userDir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("photos: write %s: %w", name, err)
	}
	return path.Join(strconv.FormatInt(userID, 10), name), nil
}

// Path resolves a stored name to a filesystem path, checking that it lives
// in userID's directory.
func (s *Store) Path(userID int64, name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidPath
	}
	clean := path.Clean("/" + name)[1:]
	dir, file := path.Split(clean)
	if file == "" || strings.TrimSuffix(dir, "/") != strconv.FormatInt(userID, 10) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.Dir, filepath.FromSlash(clean)), nil
}

// Delete removes a stored photo. Missing files are not an error.
func (s *Store) Delete(userID int64, name string) error {
	p, err := s.Path(userID, name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("photos: delete %s: %w", name, err)
	}
	return nil
}

// File is a stored photo as found on disk.
type File struct {
	Name    string
	ModTime time.Time
}

// List walks the store and returns every stored photo.
func (s *Store) List() ([]File, error) {
	var files []File
	err := filepath.WalkDir(s.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.Dir, p)
		if err != nil {
			return err
		}
		files = append(files, File{Name: filepath.ToSlash(rel), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("photos: list: %w", err)
	}
	return files, nil
}

// Remove deletes a stored photo by name regardless of owner. Used by
// maintenance, which has no user context.
func (s *Store) Remove(name string) error {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || strings.Contains(name, "..") {
		return ErrInvalidPath
	}
	if err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(clean))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("photos: remove %s: %w", name, err)
	}
	return nil
}
