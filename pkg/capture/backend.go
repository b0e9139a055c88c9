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

package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
	utilexec "k8s.io/utils/exec"

	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

// Backend produces the raw content of one capture file.
type Backend interface {
	// Name identifies the backing tool in reports and logs.
	Name() string
	// Capture returns the tool output.
	Capture(ctx context.Context) ([]byte, error)
}

// NetworkInspector reports sockets. Implementations exist for ss and netstat.
type NetworkInspector interface {
	Name() string
	Listening(ctx context.Context) ([]byte, error)
	Connections(ctx context.Context) ([]byte, error)
}

// runner executes commands with a per-command timeout.
type runner struct {
	exec    utilexec.Interface
	timeout time.Duration
}

func (r *runner) run(ctx context.Context, path string, args ...string) ([]byte, error) {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.exec.CommandContext(cctx, path, args...).Output()
	if errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, cerrors.NewWithContext(cerrors.ErrCodeTimeout,
			fmt.Sprintf("%s timed out after %s", path, r.timeout),
			map[string]any{"command": path})
	}
	if err != nil {
		// some tools (service --status-all) exit non-zero while printing
		// usable output
		var exitErr utilexec.ExitError
		if errors.As(err, &exitErr) && len(out) > 0 {
			slog.Debug("command exited non-zero, keeping output",
				slog.String("command", path),
				slog.Int("status", exitErr.ExitStatus()))
			return out, nil
		}
		return nil, cerrors.WrapWithContext(cerrors.ErrCodeToolUnavailable,
			fmt.Sprintf("%s failed", path), err,
			map[string]any{"command": path, "args": strings.Join(args, " ")})
	}
	return out, nil
}

// command is a Backend backed by one external command line.
type command struct {
	name string
	path string
	args []string
	r    *runner
}

func (c *command) Name() string { return c.name }

func (c *command) Capture(ctx context.Context) ([]byte, error) {
	return c.r.run(ctx, c.path, c.args...)
}

// socketTool implements NetworkInspector for tools sharing the
// -tuln / -tun flag convention.
type socketTool struct {
	name string
	path string
	r    *runner
}

func (s *socketTool) Name() string { return s.name }

func (s *socketTool) Listening(ctx context.Context) ([]byte, error) {
	return s.r.run(ctx, s.path, "-tuln")
}

func (s *socketTool) Connections(ctx context.Context) ([]byte, error) {
	return s.r.run(ctx, s.path, "-tun")
}

type listeningOf struct{ NetworkInspector }

func (l listeningOf) Capture(ctx context.Context) ([]byte, error) { return l.Listening(ctx) }

type connectionsOf struct{ NetworkInspector }

func (c connectionsOf) Capture(ctx context.Context) ([]byte, error) { return c.Connections(ctx) }

// systemdBus lists active service units over the systemd private bus.
type systemdBus struct {
	timeout time.Duration
}

func (s *systemdBus) Name() string { return "systemd-dbus" }

func (s *systemdBus) Capture(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeToolUnavailable, "failed to connect to systemd", err)
	}
	defer conn.Close()

	units, err := conn.ListUnitsByPatternsContext(ctx, []string{"active"}, []string{"*.service"})
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeToolUnavailable, "failed to list systemd units", err)
	}
	return renderUnits(units), nil
}

// renderUnits prints units in the column layout of
// "systemctl list-units --plain" so both backends share one parser.
func renderUnits(units []dbus.UnitStatus) []byte {
	sorted := make([]dbus.UnitStatus, len(units))
	copy(sorted, units)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString("UNIT LOAD ACTIVE SUB DESCRIPTION\n")
	for _, u := range sorted {
		fmt.Fprintf(&b, "%s %s %s %s %s\n", u.Name, u.LoadState, u.ActiveState, u.SubState, u.Description)
	}
	return []byte(b.String())
}

// fileBackend returns the content of a pseudo-file such as /proc/mounts.
type fileBackend struct {
	path string
}

func (f *fileBackend) Name() string { return f.path }

func (f *fileBackend) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeToolUnavailable, "failed to read "+f.path, err)
	}
	return b, nil
}

// funcBackend adapts an in-process query.
type funcBackend struct {
	name string
	fn   func() (string, error)
}

func (f *funcBackend) Name() string { return f.name }

func (f *funcBackend) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := f.fn()
	if err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeToolUnavailable, f.name+" failed", err)
	}
	return []byte(strings.TrimSpace(s) + "\n"), nil
}
