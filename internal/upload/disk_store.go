// Package upload stores product and category images on local disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrUnsupportedMedia = errors.New("only image uploads are accepted")

// Raster formats only. SVG can carry script and is served from our origin.
var imageTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// DiskStore saves uploads under Dir with generated names.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed and returns a store rooted there.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory files are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save sniffs the file content, rejects anything that is not a raster image and
// writes it as <uuid><ext>. It returns the stored filename.
func (s *DiskStore) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload %q: %w", fh.Filename, err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type of %q: %w", fh.Filename, err)
	}
	if !mimetype.EqualsAny(mtype.String(), imageTypes...) {
		return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedMedia, fh.Filename, mtype.String())
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload %q: %w", fh.Filename, err)
	}

	ext := mtype.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(fh.Filename))
	}
	filename := uuid.NewString() + ext

	dst, err := os.OpenFile(filepath.Join(s.dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filename, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to close %s: %w", filename, err)
	}

	return filename, nil
}

// SaveAll stores every file or none: on failure the files already written
// are removed.
func (s *DiskStore) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	names := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.Save(fh)
		if err != nil {
			s.Remove(names...)
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Remove deletes stored files by name, ignoring files that are already gone.
func (s *DiskStore) Remove(names ...string) error {
	var errs []error
	for _, name := range names {
		if name == "" || filepath.Base(name) != name {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
