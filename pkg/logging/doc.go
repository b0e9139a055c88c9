// Package logging provides structured logging utilities for snapdiff components.
//
// # Overview
//
// This package wraps the standard library slog package with snapdiff-specific defaults
// and conventions for consistent logging across all components. It supports
// environment-based log level configuration, module/version context injection,
// and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)
//   - Automatic module and version context
//   - Source location tracking for debug logs
//   - Flexible log level parsing
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLoggerWithLevel("snapdiff", "v1.0.0", "")
//	    defer slog.Info("application started")
//
//	    // Use slog as normal
//	    slog.Info("backup starting", "category", "network")
//	    slog.Debug("linked from previous snapshot", "path", rel)
//	    slog.Error("store unwritable", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("snapdiff", "v2.0.0", "debug")
//	logger.Info("backup starting", "category", "network")
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("snapdiff", "v1.0.0", "warn")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug snapdiff backup --category network
//	LOG_LEVEL=error snapdiff diff --target all
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "snapshot finalized",
//	    "module": "snapdiff",
//	    "version": "v1.0.0",
//	    "category": "network"
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "store.(*Store).Finalize",
//	        "file": "store.go",
//	        "line": 45
//	    },
//	    "msg": "repointing latest",
//	    "module": "snapdiff",
//	    "version": "v1.0.0"
//	}
//
// # Conventions
//
// Errors are logged as string attributes so JSON output stays flat:
//
//	slog.Warn("source copy failed, continuing",
//	    slog.String("source", src),
//	    slog.String("error", err.Error()),
//	)
//
// Per-item failures (missing source, unavailable tool, missing baseline) are
// logged at WARN; only failures that abort the invocation are logged at ERROR.
//
// # Integration
//
// This package is used by:
//   - pkg/cli - CLI command logging
//   - pkg/backup - Backup run logging
//   - pkg/capture - System state capture logging
//   - pkg/differ - Diff run logging
package logging
