// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/config"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

const (
	dirPerm  = 0o750
	filePerm = 0o640
)

// Store owns the on-disk snapshot layout:
//
//	<root>/<category>/<key>/...
//	<root>/<category>/latest -> <key>
type Store struct {
	root string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for snapshot keys.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New returns a Store rooted at root.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root: filepath.Clean(root),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the store root directory.
func (s *Store) Root() string {
	return s.root
}

// CategoryDir returns the directory holding category's snapshots.
func (s *Store) CategoryDir(category string) string {
	return filepath.Join(s.root, category)
}

// LatestPath returns the path of category's latest pointer.
func (s *Store) LatestPath(category string) string {
	return filepath.Join(s.CategoryDir(category), defaults.LatestName)
}

// Snapshot is a snapshot directory allocated by Begin.
type Snapshot struct {
	Category string
	Key      string
	Path     string
	RunID    string
	Created  time.Time
}

// SystemInfoDir returns the snapshot's system_info sub-tree.
func (s *Snapshot) SystemInfoDir() string {
	return filepath.Join(s.Path, defaults.SystemInfoDir)
}

// ManifestPath returns the snapshot's manifest file.
func (s *Snapshot) ManifestPath() string {
	return filepath.Join(s.Path, defaults.ManifestName)
}

// Begin allocates a new snapshot directory for category. An existing snapshot
// with the same key is never reused: the new key gets a run-id suffix instead.
func (s *Store) Begin(ctx context.Context, category string) (*Snapshot, error) {
	if err := config.ValidateCategory(category); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	catDir := s.CategoryDir(category)
	if err := os.MkdirAll(catDir, dirPerm); err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
			"failed to create category directory", err, map[string]any{"path": catDir})
	}

	created := s.now().UTC()
	runID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	key := created.Format(defaults.KeyLayout)
	path := filepath.Join(catDir, key)

	err := os.Mkdir(path, dirPerm)
	if errors.Is(err, fs.ErrExist) {
		slog.Warn("snapshot key already exists, allocating suffixed key",
			slog.String("category", category),
			slog.String("key", key),
			slog.String("run_id", runID))
		key = key + "-" + runID
		path = filepath.Join(catDir, key)
		err = os.Mkdir(path, dirPerm)
	}
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
			"failed to create snapshot directory", err, map[string]any{"path": path})
	}

	if err := os.Mkdir(filepath.Join(path, defaults.SystemInfoDir), dirPerm); err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
			"failed to create system_info directory", err, map[string]any{"path": path})
	}

	slog.Debug("allocated snapshot",
		slog.String("category", category),
		slog.String("path", path))

	return &Snapshot{
		Category: category,
		Key:      key,
		Path:     path,
		RunID:    runID,
		Created:  created,
	}, nil
}

// CurrentLatest resolves category's latest pointer, following one level of
// symbolic indirection. It returns false when the pointer is absent or dangling.
func (s *Store) CurrentLatest(category string) (string, bool) {
	return ResolveDir(s.LatestPath(category))
}

// ResolveDir resolves path to a directory, following one symlink level.
// Relative link targets resolve against the link's parent.
func ResolveDir(path string) (string, bool) {
	target := path
	if dest, err := os.Readlink(path); err == nil {
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		target = filepath.Clean(dest)
	}

	fi, err := os.Lstat(target)
	if err != nil || !fi.IsDir() {
		return "", false
	}
	return target, true
}

// Finalize repoints category's latest pointer at snap. It must be the last
// step of a backup run. The new link is created under a temporary name and
// renamed over the old one so latest is never absent.
func (s *Store) Finalize(category string, snap *Snapshot) error {
	if snap == nil || snap.Category != category {
		return cerrors.New(cerrors.ErrCodeInvalidRequest, "snapshot does not belong to category "+category)
	}

	latest := s.LatestPath(category)
	tmp := latest + ".tmp-" + snap.RunID
	_ = os.Remove(tmp)

	if err := os.Symlink(snap.Key, tmp); err != nil {
		return cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
			"failed to create latest pointer", err, map[string]any{"path": tmp})
	}
	if fi, err := os.Lstat(latest); err == nil && fi.IsDir() {
		if err := s.retireLegacyLatest(category, latest, tmp, fi, snap.RunID); err != nil {
			_ = os.Remove(tmp)
			return err
		}
	} else if err := os.Rename(tmp, latest); err != nil {
		_ = os.Remove(tmp)
		return cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
			"failed to repoint latest", err, map[string]any{"path": latest})
	}

	slog.Info("latest repointed",
		slog.String("category", category),
		slog.String("snapshot", snap.Key))
	return nil
}

// retireLegacyLatest replaces a real latest directory, left by an older
// layout, with the symlink at tmp. The directory is kept as a snapshot keyed
// by its modification time. Where the filesystem supports it the two paths
// are exchanged atomically; otherwise latest is briefly absent.
func (s *Store) retireLegacyLatest(category, latest, tmp string, fi fs.FileInfo, runID string) error {
	key := fi.ModTime().UTC().Format(defaults.KeyLayout) + "-legacy"
	dest := filepath.Join(s.CategoryDir(category), key)
	if _, err := os.Lstat(dest); err == nil {
		key += "-" + runID
		dest = filepath.Join(s.CategoryDir(category), key)
	}

	if err := unix.Renameat2(unix.AT_FDCWD, tmp, unix.AT_FDCWD, latest, unix.RENAME_EXCHANGE); err == nil {
		// tmp now holds the legacy directory and latest is already repointed
		if err := os.Rename(tmp, dest); err != nil {
			slog.Warn("failed to rename legacy latest directory",
				slog.String("path", tmp),
				slog.String("error", err.Error()))
			return nil
		}
	} else {
		if err := os.Rename(latest, dest); err != nil {
			return cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
				"failed to move legacy latest directory", err, map[string]any{"path": latest})
		}
		if err := os.Rename(tmp, latest); err != nil {
			return cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
				"failed to repoint latest", err, map[string]any{"path": latest})
		}
	}

	slog.Warn("converted legacy latest directory into a snapshot",
		slog.String("category", category),
		slog.String("snapshot", key))
	return nil
}

// Discard removes a snapshot that will never be finalized.
func (s *Store) Discard(snap *Snapshot) error {
	if snap == nil {
		return nil
	}
	if latest, ok := s.CurrentLatest(snap.Category); ok && latest == snap.Path {
		return cerrors.New(cerrors.ErrCodeInvalidRequest, "refusing to discard the latest snapshot")
	}
	return os.RemoveAll(snap.Path)
}

// Info describes a stored snapshot.
type Info struct {
	Category string    `json:"category" yaml:"category"`
	Key      string    `json:"key" yaml:"key"`
	Path     string    `json:"path" yaml:"path"`
	Latest   bool      `json:"latest" yaml:"latest"`
	Manifest *Manifest `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// List returns category's snapshots, newest first.
func (s *Store) List(category string) ([]Info, error) {
	if err := config.ValidateCategory(category); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.CategoryDir(category))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read category %q: %w", category, err)
	}

	latest, _ := s.CurrentLatest(category)

	infos := make([]Info, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ".") || name == defaults.LatestName {
			continue
		}
		path := filepath.Join(s.CategoryDir(category), name)
		info := Info{
			Category: category,
			Key:      name,
			Path:     path,
			Latest:   path == latest,
		}
		if m, err := ReadManifest(filepath.Join(path, defaults.ManifestName)); err == nil {
			info.Manifest = m
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key > infos[j].Key
	})
	return infos, nil
}

// Categories returns the category directories present in the store.
func (s *Store) Categories() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && config.ValidateCategory(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
