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

package copier

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sameFile(t *testing.T, a, b string) bool {
	t.Helper()
	ai, err := os.Stat(a)
	require.NoError(t, err)
	bi, err := os.Stat(b)
	require.NoError(t, err)
	return os.SameFile(ai, bi)
}

func TestCopyTreeSharesUnchangedContent(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src", "ssh")
	writeFile(t, filepath.Join(src, "sshd_config"), "PermitRootLogin no\n")
	writeFile(t, filepath.Join(src, "conf.d", "banner"), "authorized use only\n")

	snap1 := filepath.Join(base, "snap1", "ssh")
	snap2 := filepath.Join(base, "snap2", "ssh")
	c := New()
	ctx := context.Background()

	out, err := c.CopyTree(ctx, src, snap1, "")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Copied)
	assert.Equal(t, 0, out.Linked)

	writeFile(t, filepath.Join(src, "conf.d", "banner"), "tampered banner text\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(src, "conf.d", "banner"), future, future))

	out, err = c.CopyTree(ctx, src, snap2, snap1)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Linked)
	assert.Equal(t, 1, out.Copied)

	assert.True(t, sameFile(t, filepath.Join(snap1, "sshd_config"), filepath.Join(snap2, "sshd_config")))
	assert.False(t, sameFile(t, filepath.Join(snap1, "conf.d", "banner"), filepath.Join(snap2, "conf.d", "banner")))

	old, err := os.ReadFile(filepath.Join(snap1, "conf.d", "banner"))
	require.NoError(t, err)
	assert.Equal(t, "authorized use only\n", string(old), "previous snapshot must be untouched")
}

func TestCopyTreeVerifyContent(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	file := filepath.Join(src, "hosts")
	writeFile(t, file, "aaaa")
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(file, stamp, stamp))

	prev := filepath.Join(base, "prev")
	_, err := New().CopyTree(context.Background(), src, prev, "")
	require.NoError(t, err)

	// same size and mtime, different bytes
	writeFile(t, file, "bbbb")
	require.NoError(t, os.Chtimes(file, stamp, stamp))

	tests := []struct {
		name   string
		verify bool
		linked int
		copied int
	}{
		{name: "metadata heuristic links", verify: false, linked: 1},
		{name: "digest check copies", verify: true, copied: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filepath.Join(t.TempDir(), "out")
			out, err := New(WithVerifyContent(tt.verify)).CopyTree(context.Background(), src, dst, prev)
			require.NoError(t, err)
			assert.Equal(t, tt.linked, out.Linked)
			assert.Equal(t, tt.copied, out.Copied)
		})
	}
}

func TestCopyTreePreservesMetadata(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	file := filepath.Join(src, "secret")
	writeFile(t, file, "key")
	require.NoError(t, os.Chmod(file, 0o600))
	stamp := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(file, stamp, stamp))

	dst := filepath.Join(base, "dst")
	_, err := New().CopyTree(context.Background(), src, dst, "")
	require.NoError(t, err)

	fi, err := os.Stat(filepath.Join(dst, "secret"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	assert.True(t, stamp.Equal(fi.ModTime()))
}

func TestCopyTreeMirrorsDeletions(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeFile(t, filepath.Join(src, "keep"), "k")

	dst := filepath.Join(base, "dst")
	writeFile(t, filepath.Join(dst, "stale"), "s")
	writeFile(t, filepath.Join(dst, "olddir", "nested"), "n")

	out, err := New().CopyTree(context.Background(), src, dst, "")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Removed)
	assert.FileExists(t, filepath.Join(dst, "keep"))
	assert.NoFileExists(t, filepath.Join(dst, "stale"))
	assert.NoDirExists(t, filepath.Join(dst, "olddir"))
}

func TestCopyTreeExcludes(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeFile(t, filepath.Join(src, "nginx.conf"), "x")
	writeFile(t, filepath.Join(src, ".nginx.conf.swp"), "x")
	writeFile(t, filepath.Join(src, "cache", "blob"), "x")

	m, err := NewMatcher([]string{"*.swp", filepath.Join(src, "cache")})
	require.NoError(t, err)

	dst := filepath.Join(base, "dst")
	out, err := New(WithExcludes(m)).CopyTree(context.Background(), src, dst, "")
	require.NoError(t, err)

	assert.Equal(t, 1, out.Copied)
	assert.Equal(t, 2, out.Skipped)
	assert.FileExists(t, filepath.Join(dst, "nginx.conf"))
	assert.NoFileExists(t, filepath.Join(dst, ".nginx.conf.swp"))
	assert.NoDirExists(t, filepath.Join(dst, "cache"))
}

func TestCopyTreeRecreatesSymlinks(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeFile(t, filepath.Join(src, "sites-available", "default"), "server {}")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sites-enabled"), 0o755))
	require.NoError(t, os.Symlink("../sites-available/default", filepath.Join(src, "sites-enabled", "default")))

	dst := filepath.Join(base, "dst")
	_, err := New().CopyTree(context.Background(), src, dst, "")
	require.NoError(t, err)

	target, err := os.Readlink(filepath.Join(dst, "sites-enabled", "default"))
	require.NoError(t, err)
	assert.Equal(t, "../sites-available/default", target)
}

func TestCopyTreeSingleFile(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "etc", "resolv.conf")
	writeFile(t, src, "nameserver 1.1.1.1\n")

	first := filepath.Join(base, "snap1", "resolv.conf")
	second := filepath.Join(base, "snap2", "resolv.conf")

	out, err := New().CopyTree(context.Background(), src, first, "")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Copied)

	out, err = New().CopyTree(context.Background(), src, second, first)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Linked)
	assert.True(t, sameFile(t, first, second))
}

func TestCopyTreeMissingSource(t *testing.T) {
	_, err := New().CopyTree(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir(), "")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeMissingSource, cerrors.CodeOf(err))
}

func TestCopyTreeFollowsSymlinkedSource(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "run", "stub-resolv.conf"), "nameserver 127.0.0.53\n")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "etc"), 0o755))
	src := filepath.Join(base, "etc", "resolv.conf")
	require.NoError(t, os.Symlink("../run/stub-resolv.conf", src))

	dst := filepath.Join(base, "snap", "resolv.conf")
	out, err := New().CopyTree(context.Background(), src, dst, "")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Copied)

	fi, err := os.Lstat(dst)
	require.NoError(t, err)
	assert.True(t, fi.Mode().IsRegular(), "symlinked source must be stored as content")
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "nameserver 127.0.0.53\n", string(b))
}

func TestCopyTreeFollowsSymlinkedDirectory(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "real", "nginx")
	writeFile(t, filepath.Join(dir, "nginx.conf"), "worker_processes 1;\n")
	src := filepath.Join(base, "nginx")
	require.NoError(t, os.Symlink(dir, src))

	dst := filepath.Join(base, "snap", "nginx")
	out, err := New().CopyTree(context.Background(), src, dst, "")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Copied)

	fi, err := os.Lstat(dst)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.FileExists(t, filepath.Join(dst, "nginx.conf"))
}

func TestCopyTreeDanglingSourceSymlink(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "localtime")
	require.NoError(t, os.Symlink(filepath.Join(base, "zoneinfo", "UTC"), src))

	_, err := New().CopyTree(context.Background(), src, filepath.Join(base, "snap", "localtime"), "")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeMissingSource, cerrors.CodeOf(err))
	assert.Contains(t, err.Error(), "dangling symlink")
}

func TestCopyTreeUnwritableDestination(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "hosts")
	writeFile(t, file, "127.0.0.1 localhost\n")
	dir := filepath.Join(base, "ssh")
	writeFile(t, filepath.Join(dir, "sshd_config"), "Port 22\n")

	// a regular file where the snapshot directory should be
	blocker := filepath.Join(base, "snap")
	writeFile(t, blocker, "")

	tests := []struct {
		name string
		src  string
	}{
		{"single file", file},
		{"directory", dir},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().CopyTree(context.Background(), tt.src, filepath.Join(blocker, filepath.Base(tt.src)), "")
			require.Error(t, err)
			assert.Equal(t, cerrors.ErrCodeStoreUnwritable, cerrors.CodeOf(err))
			assert.True(t, cerrors.IsFatal(err))
		})
	}
}

func TestCopyTreeDryRun(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeFile(t, filepath.Join(src, "a"), "12345")

	dst := filepath.Join(base, "dst")
	out, err := New(WithDryRun(true)).CopyTree(context.Background(), src, dst, "")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Copied)
	assert.Equal(t, int64(5), out.Bytes)
	assert.NoDirExists(t, dst)
}

func TestCopyTreeCanceled(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "src")
	writeFile(t, filepath.Join(src, "a"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithRateLimit(100)).CopyTree(ctx, src, filepath.Join(base, "dst"), "")
	require.ErrorIs(t, err, context.Canceled)
}

func TestOutcomeAdd(t *testing.T) {
	o := Outcome{Copied: 1, Bytes: 10}
	o.Add(Outcome{Copied: 2, Linked: 3, Removed: 1, Skipped: 4, Failed: 1, Bytes: 5})
	assert.Equal(t, Outcome{Copied: 3, Linked: 3, Removed: 1, Skipped: 4, Failed: 1, Bytes: 15}, o)
}
