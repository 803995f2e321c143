package storage

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs under a base directory. Good enough for offline
// single-node deployments; swap for an object store behind BlobStore
// when running online.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

var errBadKey = errors.New("invalid blob key")

// resolve maps a key to a path inside base, rejecting traversal.
func (s *FSStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errBadKey
	}
	clean := filepath.Clean("/" + key) // force-root then strip
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." {
		return "", errBadKey
	}
	return filepath.Join(s.base, clean), nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) Delete(key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FSStore) SignedURL(key string) (string, error) {
	p, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String(), nil
}
