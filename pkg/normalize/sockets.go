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

package normalize

import (
	"strings"
)

var ssStates = map[string]string{
	"ESTAB":      "ESTABLISHED",
	"TIME-WAIT":  "TIME_WAIT",
	"CLOSE-WAIT": "CLOSE_WAIT",
	"FIN-WAIT-1": "FIN_WAIT1",
	"FIN-WAIT-2": "FIN_WAIT2",
	"SYN-SENT":   "SYN_SENT",
	"SYN-RECV":   "SYN_RECV",
	"LAST-ACK":   "LAST_ACK",
	"UNCONN":     "",
}

// parseSS reads "ss -tuln" / "ss -tun" output. Without a Netid column ss
// only printed one protocol and tcp is assumed.
func parseSS(lines []string) []Record {
	if len(lines) == 0 {
		return nil
	}
	withNetid := strings.HasPrefix(lines[0], "Netid")

	var out []Record
	for _, line := range lines[1:] {
		f := strings.Fields(line)
		proto := "tcp"
		if withNetid {
			if len(f) < 6 {
				continue
			}
			proto, f = f[0], f[1:]
		} else if len(f) < 5 {
			continue
		}
		// f: state recv-q send-q local peer [process]
		if r, ok := socketRecord(proto, f[0], f[3], f[4], true); ok {
			out = append(out, r)
		}
	}
	return out
}

// parseNetstat reads "netstat -tuln" / "netstat -tun" output. Parsing stops
// at the UNIX domain socket section.
func parseNetstat(lines []string) []Record {
	var out []Record
	for _, line := range lines {
		if strings.HasPrefix(line, "Active UNIX") || strings.HasPrefix(line, "Active Bluetooth") {
			break
		}
		f := strings.Fields(line)
		if len(f) < 5 || !protocols[strings.ToLower(f[0])] {
			continue
		}
		state := ""
		if len(f) >= 6 {
			state = f[5]
		}
		if r, ok := socketRecord(f[0], state, f[3], f[4], false); ok {
			out = append(out, r)
		}
	}
	return out
}

// parseCanonical reads lines such as "tcp LISTEN 0.0.0.0:22" or
// "tcp 10.0.0.5:22 -> 10.0.0.9:50000 ESTABLISHED".
func parseCanonical(lines []string) []Record {
	var out []Record
	for _, line := range lines {
		f := strings.Fields(line)
		if len(f) < 2 || !protocols[strings.ToLower(f[0])] {
			continue
		}
		var state, local, peer string
		for _, tok := range f[1:] {
			switch {
			case tok == "->":
			case strings.Contains(tok, ":") && local == "":
				local = tok
			case strings.Contains(tok, ":"):
				peer = tok
			default:
				state = tok
			}
		}
		if local == "" {
			continue
		}
		if peer == "" {
			peer = "*"
		}
		if r, ok := socketRecord(f[0], state, local, peer, false); ok {
			out = append(out, r)
		}
	}
	return out
}

// socketRecord builds a canonical socket record. A wildcard peer marks a
// listening socket and is dropped.
func socketRecord(proto, state, local, peer string, ssNames bool) (Record, bool) {
	proto = strings.TrimSuffix(strings.ToLower(proto), "6")
	if proto != "tcp" && proto != "udp" {
		return Record{}, false
	}

	addr, port := splitEndpoint(local)
	if addr == "" && port == "" {
		return Record{}, false
	}

	state = strings.ToUpper(state)
	if ssNames {
		if mapped, ok := ssStates[state]; ok {
			state = mapped
		}
	}
	if proto == "udp" {
		state = ""
	}

	r := Record{
		Protocol:     proto,
		LocalAddress: addr,
		LocalPort:    port,
		State:        state,
	}
	if pa, pp := splitEndpoint(peer); !isWildcard(pa, pp) {
		r.Peer = joinEndpoint(pa, pp)
	}
	return r, true
}

// splitEndpoint splits "addr:port" in any of the spellings ss and netstat
// use: "0.0.0.0:22", "[::]:22", ":::22", "*:22", "127.0.0.53%lo:53",
// "[fe80::1%eth0]:546".
func splitEndpoint(s string) (string, string) {
	var addr, port string
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return "", ""
		}
		addr = s[1:end]
		port = strings.TrimPrefix(s[end+1:], ":")
	} else if i := strings.LastIndex(s, ":"); i >= 0 {
		addr, port = s[:i], s[i+1:]
	} else {
		addr = s
	}

	if i := strings.IndexByte(addr, '%'); i >= 0 {
		addr = addr[:i]
	}
	if addr == "*" || addr == "" {
		addr = "0.0.0.0"
	}
	return addr, port
}

func isWildcard(addr, port string) bool {
	return port == "*" || port == "" || port == "0" && (addr == "0.0.0.0" || addr == "::")
}

func joinEndpoint(addr, port string) string {
	if strings.Contains(addr, ":") {
		return "[" + addr + "]:" + port
	}
	return addr + ":" + port
}
