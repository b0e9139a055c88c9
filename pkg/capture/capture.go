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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/util"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	utilexec "k8s.io/utils/exec"

	"github.com/calamoni/csusb-ccdc-sub000/pkg/defaults"
	cerrors "github.com/calamoni/csusb-ccdc-sub000/pkg/errors"
)

// Logical capture file names. The normalizer and the locator depend on them.
const (
	FileProcesses   = "processes.txt"
	FileListening   = "listening_ports.txt"
	FileConnections = "network_connections.txt"
	FileServices    = "active_services.txt"
	FileUsers       = "logged_users.txt"
	FileMounts      = "mounts.txt"
	FilePackages    = "packages.list"
	FileKernel      = "kernel.txt"
	FileHostname    = "hostname.txt"
)

// Files lists every capture file in the order they are written.
var Files = []string{
	FileProcesses,
	FileListening,
	FileConnections,
	FileServices,
	FileUsers,
	FileMounts,
	FilePackages,
	FileKernel,
	FileHostname,
}

// PlaceholderPrefix starts the single line written when a file could not be
// captured.
const PlaceholderPrefix = "# unavailable:"

// Placeholder returns the content written in place of an unavailable capture.
func Placeholder(reason string) []byte {
	reason = strings.ReplaceAll(strings.TrimSpace(reason), "\n", " ")
	return []byte(PlaceholderPrefix + " " + reason + "\n")
}

// IsPlaceholder reports whether data is a placeholder written by Capture.
func IsPlaceholder(data []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(string(data)), PlaceholderPrefix)
}

type target struct {
	file     string
	backends []Backend
}

// Capturer writes the system_info battery.
type Capturer struct {
	exec       utilexec.Interface
	timeout    time.Duration
	procMounts string
	systemd    func() bool
	hostname   func() (string, error)
	kernel     func() (string, error)

	targets []target
}

// Option configures a Capturer.
type Option func(*Capturer)

// WithExec replaces the command executor.
func WithExec(e utilexec.Interface) Option {
	return func(c *Capturer) {
		c.exec = e
	}
}

// WithCommandTimeout bounds each external command.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Capturer) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProcMounts overrides the mount table pseudo-file.
func WithProcMounts(path string) Option {
	return func(c *Capturer) {
		c.procMounts = path
	}
}

// WithSystemdBus forces the systemd D-Bus backend on or off instead of
// detecting whether the host booted with systemd.
func WithSystemdBus(enabled bool) Option {
	return func(c *Capturer) {
		c.systemd = func() bool { return enabled }
	}
}

// WithHostInfo replaces the hostname and kernel queries.
func WithHostInfo(hostname, kernel func() (string, error)) Option {
	return func(c *Capturer) {
		if hostname != nil {
			c.hostname = hostname
		}
		if kernel != nil {
			c.kernel = kernel
		}
	}
}

// New builds a Capturer and resolves the available backends.
func New(opts ...Option) *Capturer {
	c := &Capturer{
		exec:       utilexec.New(),
		timeout:    defaults.CommandTimeout,
		procMounts: "/proc/mounts",
		systemd:    util.IsRunningSystemd,
		hostname:   os.Hostname,
		kernel:     Kernel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resolve()
	return c
}

func (c *Capturer) lookPath(tool string) (string, bool) {
	path, err := c.exec.LookPath(tool)
	if err != nil {
		slog.Debug("tool not found", slog.String("tool", tool))
		return "", false
	}
	return path, true
}

func (c *Capturer) command(name, tool string, args ...string) Backend {
	path, ok := c.lookPath(tool)
	if !ok {
		return nil
	}
	return &command{name: name, path: path, args: args, r: &runner{exec: c.exec, timeout: c.timeout}}
}

func (c *Capturer) resolve() {
	r := &runner{exec: c.exec, timeout: c.timeout}

	var inspectors []NetworkInspector
	for _, tool := range []string{"ss", "netstat"} {
		if path, ok := c.lookPath(tool); ok {
			inspectors = append(inspectors, &socketTool{name: tool, path: path, r: r})
		}
	}
	var listening, connections []Backend
	for _, ni := range inspectors {
		listening = append(listening, listeningOf{ni})
		connections = append(connections, connectionsOf{ni})
	}

	var services []Backend
	if c.systemd() {
		services = append(services, &systemdBus{timeout: defaults.DBusTimeout})
	}
	services = compact(append(services,
		c.command("systemctl", "systemctl", "list-units", "--type=service", "--state=active", "--no-pager", "--plain"),
		c.command("service", "service", "--status-all"),
	))

	var mounts []Backend
	if _, err := os.Stat(c.procMounts); err == nil {
		mounts = append(mounts, &fileBackend{path: c.procMounts})
	}
	mounts = compact(append(mounts, c.command("mount", "mount")))

	c.targets = []target{
		{file: FileProcesses, backends: compact([]Backend{
			c.command("ps aux", "ps", "aux"),
			c.command("busybox ps", "busybox", "ps"),
		})},
		{file: FileListening, backends: listening},
		{file: FileConnections, backends: connections},
		{file: FileServices, backends: services},
		{file: FileUsers, backends: compact([]Backend{
			c.command("who", "who"),
			c.command("w", "w", "-h"),
		})},
		{file: FileMounts, backends: mounts},
		{file: FilePackages, backends: compact([]Backend{
			c.command("dpkg-query", "dpkg-query", "-W", "-f=${Package} ${Version}\n"),
			c.command("rpm", "rpm", "-qa", "--qf", "%{NAME} %{VERSION}-%{RELEASE}\n"),
			c.command("apk", "apk", "info", "-v"),
			c.command("pacman", "pacman", "-Q"),
		})},
		{file: FileKernel, backends: []Backend{&funcBackend{name: "uname", fn: c.kernel}}},
		{file: FileHostname, backends: []Backend{&funcBackend{name: "hostname", fn: c.hostname}}},
	}

	resolved := c.backends()
	for _, t := range c.targets {
		slog.Debug("resolved capture backends",
			slog.String("file", t.file),
			slog.String("backends", strings.Join(resolved[t.file], ",")))
	}
}

func compact(backends []Backend) []Backend {
	out := backends[:0]
	for _, b := range backends {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}

func backendNames(backends []Backend) []string {
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	return names
}

// backends returns the resolved backend names per capture file, in priority
// order.
func (c *Capturer) backends() map[string][]string {
	m := make(map[string][]string, len(c.targets))
	for _, t := range c.targets {
		m[t.file] = backendNames(t.backends)
	}
	return m
}

// FileResult describes one written capture file.
type FileResult struct {
	Name    string `json:"name" yaml:"name"`
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Bytes   int    `json:"bytes" yaml:"bytes"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report summarizes a Capture call.
type Report struct {
	Files []FileResult `json:"files" yaml:"files"`
}

// Unavailable returns the files that hold a placeholder.
func (r *Report) Unavailable() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Error != "" {
			out = append(out, f)
		}
	}
	return out
}

// Capture writes every capture file into destDir. Tool failures become
// placeholder files; only cancellation and write failures are returned.
func (c *Capturer) Capture(ctx context.Context, destDir string) (*Report, error) {
	slog.Info("capturing system state", slog.String("dir", destDir))

	report := &Report{}
	for _, t := range c.targets {
		data, backend, err := c.run(ctx, t)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			slog.Warn("capture unavailable",
				slog.String("file", t.file),
				slog.String("error", err.Error()))
			data = Placeholder(err.Error())
		}

		path := filepath.Join(destDir, t.file)
		if werr := os.WriteFile(path, data, 0o640); werr != nil {
			return report, cerrors.WrapWithContext(cerrors.ErrCodeStoreUnwritable,
				"failed to write capture file", werr, map[string]any{"path": path})
		}

		res := FileResult{Name: t.file, Backend: backend, Bytes: len(data)}
		if err != nil {
			res.Error = err.Error()
		}
		report.Files = append(report.Files, res)
	}
	return report, nil
}

// CaptureOne produces the live content of a single capture file.
func (c *Capturer) CaptureOne(ctx context.Context, name string) ([]byte, error) {
	for _, t := range c.targets {
		if t.file != name {
			continue
		}
		data, backend, err := c.run(ctx, t)
		if err != nil {
			return nil, err
		}
		slog.Debug("live capture",
			slog.String("file", name),
			slog.String("backend", backend))
		return data, nil
	}
	return nil, cerrors.New(cerrors.ErrCodeInvalidRequest, fmt.Sprintf("unknown capture %q", name))
}

// run tries the backends of t in order.
func (c *Capturer) run(ctx context.Context, t target) ([]byte, string, error) {
	if len(t.backends) == 0 {
		return nil, "", cerrors.New(cerrors.ErrCodeToolUnavailable, "no backend installed for "+t.file)
	}

	var errs []error
	for _, b := range t.backends {
		data, err := b.Capture(ctx)
		if err == nil {
			return data, b.Name(), nil
		}
		slog.Debug("capture backend failed",
			slog.String("file", t.file),
			slog.String("backend", b.Name()),
			slog.String("error", err.Error()))
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 1 {
		return nil, "", errs[0]
	}
	return nil, "", cerrors.Wrap(cerrors.ErrCodeToolUnavailable,
		"all backends failed for "+t.file, utilerrors.NewAggregate(errs))
}
