// Package fs implements the raw-data archive on the local filesystem. A key
// maps to a relative file path under the root, with a JSON sidecar (the same
// path plus ".meta") carrying content type, user metadata, and the sha256
// etag computed at write time.
package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"chambercore/internal/rawdata/core"
)

const sidecarSuffix = ".meta"

// Store archives raw acquisition files under a root directory. Writes go
// through a temp file and rename, so a partially written file is never
// visible under its final key.
type Store struct {
	root string
}

// New returns a filesystem-backed archive rooted at path, creating it if
// needed.
func New(root string) (*Store, error) {
	if root == "" {
		root = "./rawdata"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// object is the on-disk location pair for one key.
type object struct {
	data    string
	sidecar string
}

// resolve validates a key segment by segment and maps it under the root.
// Absolute keys and any form of traversal are rejected so a key cannot name a
// path outside the archive.
func (s *Store) resolve(key string) (object, error) {
	if strings.TrimSpace(key) == "" {
		return object{}, fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return object{}, fmt.Errorf("absolute key %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." || strings.Contains(seg, "..") {
			return object{}, fmt.Errorf("invalid key segment %q in %q", seg, key)
		}
	}
	rel := path.Clean(key)
	data := filepath.Join(s.root, filepath.FromSlash(rel))
	return object{data: data, sidecar: data + sidecarSuffix}, nil
}

// sidecar is the serialized form of the metadata file.
type sidecar struct {
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	ETag        string            `json:"etag"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
}

func (sc sidecar) info(s *Store, key string) core.Info {
	return core.Info{
		Key:          key,
		Size:         sc.Size,
		ContentType:  sc.ContentType,
		ETag:         sc.ETag,
		Metadata:     copyMetadata(sc.Metadata),
		LastModified: sc.CreatedAt,
		URL:          s.localURL(key),
	}
}

func loadSidecar(path string) (sidecar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return sidecar{}, err
	}
	var sc sidecar
	if err := json.Unmarshal(b, &sc); err != nil {
		return sidecar{}, fmt.Errorf("corrupt sidecar %s: %w", path, err)
	}
	return sc, nil
}

func (sc sidecar) save(path string) error {
	b, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Put archives a new file. Acquisition files are immutable, so an existing
// key is rejected rather than overwritten.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	obj, err := s.resolve(key)
	if err != nil {
		return core.Info{}, err
	}
	if _, err := os.Stat(obj.data); err == nil {
		return core.Info{}, fmt.Errorf("raw file %s already exists", key)
	}
	if err := os.MkdirAll(filepath.Dir(obj.data), 0o755); err != nil {
		return core.Info{}, err
	}
	size, etag, err := s.writeTemp(obj.data, r)
	if err != nil {
		return core.Info{}, err
	}
	sc := sidecar{
		ContentType: opts.ContentType,
		Metadata:    copyMetadata(opts.Metadata),
		ETag:        etag,
		Size:        size,
		CreatedAt:   time.Now().UTC(),
	}
	if err := sc.save(obj.sidecar); err != nil {
		return core.Info{}, err
	}
	return sc.info(s, key), nil
}

// writeTemp streams r into a temp file next to dst, hashing as it copies,
// then renames into place.
func (s *Store) writeTemp(dst string, r io.Reader) (int64, string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	hash := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hash), r)
	if err != nil {
		_ = tmp.Close()
		return 0, "", err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, "", err
	}
	if err := tmp.Close(); err != nil {
		return 0, "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return 0, "", err
	}
	return size, hex.EncodeToString(hash.Sum(nil)), nil
}

// Get opens an archived file for reading.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	obj, err := s.resolve(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	file, err := os.Open(obj.data)
	if err != nil {
		return core.Info{}, nil, err
	}
	sc, err := loadSidecar(obj.sidecar)
	if err != nil {
		_ = file.Close()
		return core.Info{}, nil, err
	}
	return sc.info(s, key), file, nil
}

// Head returns metadata without opening the file.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	obj, err := s.resolve(key)
	if err != nil {
		return core.Info{}, err
	}
	sc, err := loadSidecar(obj.sidecar)
	if err != nil {
		return core.Info{}, err
	}
	return sc.info(s, key), nil
}

// Delete removes the file and its sidecar, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	obj, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if err := os.Remove(obj.data); err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	_ = os.Remove(obj.sidecar)
	return true, nil
}

// List walks the sidecars under the root and returns the matching keys sorted.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	walk := func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, sidecarSuffix) {
			return nil
		}
		rel, err := filepath.Rel(s.root, strings.TrimSuffix(p, sidecarSuffix))
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			return nil
		}
		sc, err := loadSidecar(p)
		if err != nil {
			return err
		}
		infos = append(infos, sc.info(s, key))
		return nil
	}
	if err := filepath.WalkDir(s.root, walk); err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL returns a pseudo URL for local development. Only GET makes sense
// without a fronting server, so other methods are unsupported.
func (s *Store) PresignURL(_ context.Context, key string, opts core.SignedURLOptions) (string, error) {
	if opts.Method != "" && !strings.EqualFold(opts.Method, "GET") {
		return "", core.ErrUnsupported
	}
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	return s.localURL(key), nil
}

func (s *Store) localURL(key string) string {
	return (&url.URL{Scheme: "http", Host: "local.rawdata", Path: "/" + key}).String()
}

func copyMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
