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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	cur := c.t
	c.t = c.t.Add(time.Minute)
	return cur
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBeginCreatesLayout(t *testing.T) {
	root := t.TempDir()
	s := New(root, WithClock(fixedClock(time.Date(2026, 10, 17, 8, 15, 30, 0, time.UTC))))

	snap, err := s.Begin(context.Background(), "network")
	require.NoError(t, err)

	assert.Equal(t, "2026-10-17_081530", snap.Key)
	assert.Equal(t, filepath.Join(root, "network", "2026-10-17_081530"), snap.Path)
	assert.DirExists(t, snap.SystemInfoDir())
	assert.Len(t, snap.RunID, 8)

	_, ok := s.CurrentLatest("network")
	assert.False(t, ok, "latest must not exist before finalize")
}

func TestBeginRejectsInvalidCategory(t *testing.T) {
	s := New(t.TempDir())
	_, err := s.Begin(context.Background(), "../escape")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
}

func TestBeginStoreUnwritable(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o600))

	_, err := New(root).Begin(context.Background(), "network")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeStoreUnwritable, cerrors.CodeOf(err))
}

func TestBeginCollisionGetsSuffixedKey(t *testing.T) {
	root := t.TempDir()
	s := New(root, WithClock(fixedClock(time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC))))

	first, err := s.Begin(context.Background(), "network")
	require.NoError(t, err)
	marker := filepath.Join(first.Path, "marker")
	require.NoError(t, os.WriteFile(marker, []byte("first"), 0o600))

	second, err := s.Begin(context.Background(), "network")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
	assert.Equal(t, first.Key+"-"+second.RunID, second.Key)
	assert.NoFileExists(t, filepath.Join(second.Path, "marker"))

	b, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "first", string(b), "existing snapshot must be untouched")
}

func TestFinalizeTwiceMovesLatest(t *testing.T) {
	root := t.TempDir()
	clock := &stepClock{t: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)}
	s := New(root, WithClock(clock.now))
	ctx := context.Background()

	first, err := s.Begin(ctx, "network")
	require.NoError(t, err)
	require.NoError(t, s.Finalize("network", first))

	latest, ok := s.CurrentLatest("network")
	require.True(t, ok)
	assert.Equal(t, first.Path, latest)

	second, err := s.Begin(ctx, "network")
	require.NoError(t, err)
	require.NoError(t, s.Finalize("network", second))

	latest, ok = s.CurrentLatest("network")
	require.True(t, ok)
	assert.Equal(t, second.Path, latest)
	assert.NotEqual(t, first.Path, second.Path)

	link, err := os.Readlink(s.LatestPath("network"))
	require.NoError(t, err)
	assert.Equal(t, second.Key, link, "latest should be a relative link")

	matches, err := filepath.Glob(s.LatestPath("network") + ".tmp-*")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestUnfinalizedRunLeavesLatest(t *testing.T) {
	root := t.TempDir()
	clock := &stepClock{t: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)}
	s := New(root, WithClock(clock.now))
	ctx := context.Background()

	good, err := s.Begin(ctx, "firewall")
	require.NoError(t, err)
	require.NoError(t, s.Finalize("firewall", good))

	// simulated crash: the second run never reaches Finalize
	partial, err := s.Begin(ctx, "firewall")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(partial.Path, "half"), []byte("x"), 0o600))

	latest, ok := s.CurrentLatest("firewall")
	require.True(t, ok)
	assert.Equal(t, good.Path, latest)

	require.NoError(t, s.Discard(partial))
	assert.NoDirExists(t, partial.Path)
	assert.Error(t, s.Discard(good), "latest snapshot must not be discarded")
}

func TestCurrentLatestDanglingOrAbsent(t *testing.T) {
	root := t.TempDir()
	s := New(root)

	_, ok := s.CurrentLatest("network")
	assert.False(t, ok)

	require.NoError(t, os.MkdirAll(s.CategoryDir("network"), 0o750))
	require.NoError(t, os.Symlink("2020-01-01_000000", s.LatestPath("network")))
	_, ok = s.CurrentLatest("network")
	assert.False(t, ok, "dangling latest must resolve to none")
}

func TestCurrentLatestLegacyDirectory(t *testing.T) {
	root := t.TempDir()
	s := New(root)
	require.NoError(t, os.MkdirAll(s.LatestPath("all"), 0o750))

	got, ok := s.CurrentLatest("all")
	require.True(t, ok)
	assert.Equal(t, s.LatestPath("all"), got)
}

func TestFinalizeReplacesLegacyLatestDirectory(t *testing.T) {
	root := t.TempDir()
	clock := &stepClock{t: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)}
	s := New(root, WithClock(clock.now))

	legacy := s.LatestPath("network")
	require.NoError(t, os.MkdirAll(legacy, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(legacy, "interfaces"), []byte("auto lo\n"), 0o640))
	mod := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(legacy, mod, mod))

	snap, err := s.Begin(context.Background(), "network")
	require.NoError(t, err)
	require.NoError(t, s.Finalize("network", snap))

	fi, err := os.Lstat(legacy)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink, "latest must become a symlink")
	got, ok := s.CurrentLatest("network")
	require.True(t, ok)
	assert.Equal(t, snap.Path, got)

	kept := filepath.Join(s.CategoryDir("network"), "2025-03-01_120000-legacy")
	b, err := os.ReadFile(filepath.Join(kept, "interfaces"))
	require.NoError(t, err)
	assert.Equal(t, "auto lo\n", string(b))

	infos, err := s.List("network")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, snap.Key, infos[0].Key)
	assert.True(t, infos[0].Latest)
	assert.Equal(t, "2025-03-01_120000-legacy", infos[1].Key)

	entries, err := os.ReadDir(s.CategoryDir("network"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestFinalizeRejectsForeignSnapshot(t *testing.T) {
	s := New(t.TempDir())
	snap, err := s.Begin(context.Background(), "network")
	require.NoError(t, err)

	err = s.Finalize("firewall", snap)
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidRequest, cerrors.CodeOf(err))
}

func TestListNewestFirst(t *testing.T) {
	root := t.TempDir()
	clock := &stepClock{t: time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)}
	s := New(root, WithClock(clock.now))
	ctx := context.Background()

	var snaps []*Snapshot
	for i := 0; i < 3; i++ {
		snap, err := s.Begin(ctx, "users")
		require.NoError(t, err)
		require.NoError(t, WriteManifest(snap.ManifestPath(), &Manifest{
			Category: "users",
			Snapshot: snap.Key,
			Status:   StatusComplete,
			Created:  snap.Created,
		}))
		snaps = append(snaps, snap)
	}
	require.NoError(t, s.Finalize("users", snaps[1]))

	infos, err := s.List("users")
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, snaps[2].Key, infos[0].Key)
	assert.Equal(t, snaps[0].Key, infos[2].Key)
	assert.True(t, infos[1].Latest)
	assert.False(t, infos[0].Latest)
	require.NotNil(t, infos[0].Manifest)
	assert.Equal(t, StatusComplete, infos[0].Manifest.Status)

	none, err := s.List("empty")
	require.NoError(t, err)
	assert.Empty(t, none)

	cats, err := s.Categories()
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, cats)
}

func TestLockConflict(t *testing.T) {
	s := New(t.TempDir())

	l1, err := s.Lock("network")
	require.NoError(t, err)

	_, err = s.Lock("network")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeConflict, cerrors.CodeOf(err))

	other, err := s.Lock("firewall")
	require.NoError(t, err, "different categories lock independently")
	require.NoError(t, other.Release())

	require.NoError(t, l1.Release())
	require.NoError(t, l1.Release())

	l2, err := s.Lock("network")
	require.NoError(t, err)
	require.NoError(t, l2.Release())
	assert.FileExists(t, filepath.Join(s.CategoryDir("network"), defaults.LockName))
}
