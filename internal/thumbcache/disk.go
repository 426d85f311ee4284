package thumbcache

import (
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"media-browser/internal/filesystem"
	"media-browser/internal/logging"
	"media-browser/internal/media"
)

// DiskStore keeps one JPEG file per key in a directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir if needed and returns a store rooted there.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	logging.Debug("DiskStore: cache dir: %s", dir)
	return &DiskStore{dir: dir}, nil
}

// Backend implements Store.
func (s *DiskStore) Backend() string { return "disk" }

// Dir returns the cache directory.
func (s *DiskStore) Dir() string { return s.dir }

// PathFor returns the file that holds key.
func (s *DiskStore) PathFor(key string) string {
	hash := md5.Sum([]byte(key))
	return filepath.Join(s.dir, fmt.Sprintf("%x.jpg", hash))
}

// Load implements Store.
func (s *DiskStore) Load(key string) (image.Image, bool, error) {
	path := s.PathFor(key)

	img, err := media.DecodeFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	logging.Debug("Thumbnail disk hit: %s", key)
	return img, true, nil
}

// Save implements Store. The file is written to a temporary name and renamed
// so readers never see a partial JPEG.
func (s *DiskStore) Save(key string, img image.Image) error {
	data, err := media.EncodeJPEG(img)
	if err != nil {
		return err
	}

	path := s.PathFor(key)
	tmp, err := os.CreateTemp(s.dir, ".thumb-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close thumbnail: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}

	logging.Debug("Thumbnail cached: %s", path)
	return nil
}

// Has reports whether a file exists for key without decoding it.
func (s *DiskStore) Has(key string) bool {
	return filesystem.Exists(s.PathFor(key))
}
