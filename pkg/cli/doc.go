// Package cli implements the command-line interface of snapdiff.
//
// # Overview
//
// snapdiff keeps dated, hardlink-deduplicated snapshots of host configuration
// files together with a capture of the live system state (listening ports,
// connections, processes, services, logged-in users, mounts, packages), and
// reports how the live host has drifted from the latest snapshot. It is meant
// for operators defending a small fleet of hosts who need to answer "what
// changed since the known-good state" quickly.
//
// # Commands
//
// backup - Create a snapshot of one category:
//
//	snapdiff backup --category ssh [--exclude '*.swp'] [--dry-run] [--verify]
//
// Copies every source of the category into <root>/<category>/<key>, hardlinking
// files unchanged since the previous snapshot, captures system state into
// system_info/, writes manifest.txt and finally repoints latest.
//
// diff - Compare the live host against the latest snapshot:
//
//	snapdiff diff --category network --target ports
//	snapdiff diff --target configs --unified
//	snapdiff diff --target files --file /etc/passwd
//
// Targets are ports, connections, processes, services, users, mounts, packages,
// configs, files and all. Captures are normalized before comparison so output
// of ss and netstat (or systemctl and service) compare equal when the state is
// the same.
//
// list - List the snapshots of a category:
//
//	snapdiff list --category all
//
// locate - Show which stored file diff would use as a baseline:
//
//	snapdiff locate --category web listening_ports.txt
//
// categories - Show the configured categories and their sources:
//
//	snapdiff categories --format yaml
//
// # Global Flags
//
//	--root             Snapshot store root (default /var/backups/snapdiff)
//	--config, -c       YAML file with category definitions
//	--log-level        debug, info, warn, error
//	--timeout          Overall time limit of the command
//	--command-timeout  Time limit of each introspection command
//	--metrics-file     Prometheus textfile written on exit
//
// # Output Formats
//
// Commands that print results accept --format text|json|yaml|table and
// --output FILE. Text output is colored when writing to a terminal; use
// --color never or NO_COLOR to disable it.
//
// # Environment Variables
//
//	SNAPDIFF_ROOT, SNAPDIFF_CONFIG, SNAPDIFF_CATEGORY, SNAPDIFF_TIMEOUT,
//	SNAPDIFF_COMMAND_TIMEOUT, SNAPDIFF_METRICS_FILE, SNAPDIFF_COLOR
//	SNAPDIFF_LOG_LEVEL or LOG_LEVEL  Logging verbosity
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, execution failure)
//	2  Context canceled or timeout
//	3  Another backup of the category is running
//	4  Snapshot store not writable
//	5  No baseline for an explicitly requested comparison
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/calamoni/csusb-ccdc-sub000/pkg/cli.version=1.0.0'"
package cli
