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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/config"
	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

// Lock is an exclusive advisory lock on one category.
type Lock struct {
	path string
	file *os.File
}

// Lock takes the per-category lock without blocking. A second backup of the
// same category fails with CONFLICT while the first holds it.
func (s *Store) Lock(category string) (*Lock, error) {
	if err := config.ValidateCategory(category); err != nil {
		return nil, err
	}

	dir := s.CategoryDir(category)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
			"failed to create category directory", err, map[string]any{"path": dir})
	}

	path := filepath.Join(dir, defaults.LockName)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, filePerm)
	if err != nil {
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
			"failed to open lock file", err, map[string]any{"path": path})
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		holder := readHolder(f)
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, cerrors.NewWithContext(cerrors.ErrCodeConflict,
				fmt.Sprintf("category %q is locked by another run", category),
				map[string]any{"path": path, "pid": holder})
		}
		return nil, cerrors.Wrap(cerrors.ErrCodeInternal, "failed to lock category", err)
	}

	if err := f.Truncate(0); err == nil {
		_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}

	return &Lock{path: path, file: f}, nil
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil
	_ = f.Truncate(0)
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("failed to unlock %s: %w", l.path, err)
	}
	return f.Close()
}

func readHolder(f *os.File) int {
	buf := make([]byte, 32)
	n, _ := f.ReadAt(buf, 0)
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0
	}
	return pid
}
