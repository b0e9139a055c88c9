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

package locator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portsFile = "listening_ports.txt"

var today = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func put(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func link(t *testing.T, target, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.Symlink(target, path))
}

func newLocator(root string) *Locator {
	return New(root, WithClock(func() time.Time { return today }))
}

func TestLocateCategoryLatest(t *testing.T) {
	root := t.TempDir()
	want := put(t, filepath.Join(root, "network", "2026-10-16_080000", "system_info", portsFile), "x")
	put(t, filepath.Join(root, "all", "2026-10-16_080000", "system_info", portsFile), "generic")
	link(t, "2026-10-16_080000", filepath.Join(root, "network", "latest"))
	link(t, "2026-10-16_080000", filepath.Join(root, "all", "latest"))

	m, ok := newLocator(root).Find("network", portsFile)
	require.True(t, ok)
	assert.Equal(t, want, m.Path)
	assert.Equal(t, StepCategory, m.Step)
}

func TestLocateGenericOnly(t *testing.T) {
	root := t.TempDir()
	want := put(t, filepath.Join(root, "all", "2026-10-16_080000", "system_info", portsFile), "x")
	link(t, "2026-10-16_080000", filepath.Join(root, "all", "latest"))

	got, ok := newLocator(root).Locate("network", portsFile)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestLocateNone(t *testing.T) {
	root := t.TempDir()
	put(t, filepath.Join(root, "network", "2026-10-16_080000", "system_info", "processes.txt"), "x")

	_, ok := newLocator(root).Locate("network", portsFile)
	assert.False(t, ok)

	_, ok = newLocator(filepath.Join(root, "missing")).Locate("network", portsFile)
	assert.False(t, ok)
}

func TestLocateTodaysDirectory(t *testing.T) {
	tests := []struct {
		name string
		dir  string
	}{
		{name: "legacy day directory", dir: "2026-10-17"},
		{name: "timestamped key", dir: "2026-10-17_091500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			want := put(t, filepath.Join(root, "firewall", tt.dir, "system_info", portsFile), "x")

			m, ok := newLocator(root).Find("firewall", portsFile)
			require.True(t, ok)
			assert.Equal(t, want, m.Path)
			assert.Equal(t, StepCategory, m.Step)
		})
	}
}

func TestLocateNewestKeyOfToday(t *testing.T) {
	root := t.TempDir()
	put(t, filepath.Join(root, "ssh", "2026-10-17_070000", "system_info", portsFile), "old")
	want := put(t, filepath.Join(root, "ssh", "2026-10-17_090000", "system_info", portsFile), "new")

	got, ok := newLocator(root).Locate("ssh", portsFile)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestLocateGenericFlatLayout(t *testing.T) {
	root := t.TempDir()
	want := put(t, filepath.Join(root, "all", "2026-10-16_080000", portsFile), "x")
	link(t, "2026-10-16_080000", filepath.Join(root, "all", "latest"))

	m, ok := newLocator(root).Find("network", portsFile)
	require.True(t, ok)
	assert.Equal(t, want, m.Path)
	assert.Equal(t, StepGenericFlat, m.Step)
}

func TestLocateFullSearch(t *testing.T) {
	root := t.TempDir()
	put(t, filepath.Join(root, "web", "2026-01-01_000000", "system_info", portsFile), "old")
	want := put(t, filepath.Join(root, "web", "2026-02-01_000000", "system_info", portsFile), "new")

	m, ok := newLocator(root).Find("network", portsFile)
	require.True(t, ok)
	assert.Equal(t, want, m.Path)
	assert.Equal(t, StepSearch, m.Step)
}

func TestLocateGenericCategorySkipsStepOne(t *testing.T) {
	root := t.TempDir()
	want := put(t, filepath.Join(root, "all", "2026-10-16_080000", "system_info", portsFile), "x")
	link(t, "2026-10-16_080000", filepath.Join(root, "all", "latest"))

	m, ok := newLocator(root).Find("all", portsFile)
	require.True(t, ok)
	assert.Equal(t, want, m.Path)
	assert.Equal(t, StepGeneric, m.Step)
}

func TestLocateDanglingLatest(t *testing.T) {
	root := t.TempDir()
	link(t, "gone", filepath.Join(root, "network", "latest"))
	want := put(t, filepath.Join(root, "all", "2026-10-16_080000", "system_info", portsFile), "x")
	link(t, "2026-10-16_080000", filepath.Join(root, "all", "latest"))

	got, ok := newLocator(root).Locate("network", portsFile)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestLatestIsPinned(t *testing.T) {
	root := t.TempDir()
	first := put(t, filepath.Join(root, "network", "2026-10-16_080000", "system_info", portsFile), "a")
	put(t, filepath.Join(root, "network", "2026-10-16_090000", "system_info", portsFile), "b")
	latest := filepath.Join(root, "network", "latest")
	link(t, "2026-10-16_080000", latest)

	l := newLocator(root)
	got, ok := l.Locate("network", portsFile)
	require.True(t, ok)
	assert.Equal(t, first, got)

	// a concurrent backup repoints latest
	require.NoError(t, os.Remove(latest))
	require.NoError(t, os.Symlink("2026-10-16_090000", latest))

	got, ok = l.Locate("network", portsFile)
	require.True(t, ok)
	assert.Equal(t, first, got)

	dir, ok := l.SnapshotDir("network")
	require.True(t, ok)
	assert.Equal(t, filepath.Dir(filepath.Dir(first)), dir)
}

func TestSnapshotDirFallsBackToGeneric(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "all", "2026-10-16_080000"), 0o755))
	link(t, "2026-10-16_080000", filepath.Join(root, "all", "latest"))

	dir, ok := newLocator(root).SnapshotDir("web")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "all", "2026-10-16_080000"), dir)

	_, ok = newLocator(t.TempDir()).SnapshotDir("web")
	assert.False(t, ok)
}

func TestLocateRejectsPaths(t *testing.T) {
	_, ok := newLocator(t.TempDir()).Locate("network", "../etc/passwd")
	assert.False(t, ok)
}
