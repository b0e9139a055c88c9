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

// Package capture records transient OS state into a snapshot's system_info
// directory.
//
// # Overview
//
// Each capture file is produced by an ordered list of backends. The list is
// resolved once when the Capturer is built: backends whose tool cannot be
// found on PATH are dropped. At capture time the remaining backends are
// tried in order and the first one that succeeds wins.
//
//	File                      Backends (priority order)
//	processes.txt             ps aux, busybox ps
//	listening_ports.txt       ss -tuln, netstat -tuln
//	network_connections.txt   ss -tun, netstat -tun
//	active_services.txt       systemd D-Bus, systemctl, service --status-all
//	logged_users.txt          who, w -h
//	mounts.txt                /proc/mounts, mount
//	packages.list             dpkg-query, rpm, apk, pacman
//	kernel.txt                uname(2)
//	hostname.txt              gethostname(2)
//
// # Degradation
//
// Every external command runs with a bounded timeout. When no backend can
// produce a file, either because none is installed, all failed, or the
// timeout expired, the file is still written and holds a single placeholder
// line:
//
//	# unavailable: <reason>
//
// The placeholder is reported as TOOL_UNAVAILABLE (or TIMEOUT) in the
// returned Report and never fails the capture as a whole.
//
// # Testing
//
// Commands run through k8s.io/utils/exec, so tests substitute
// k8s.io/utils/exec/testing fakes with WithExec.
package capture
