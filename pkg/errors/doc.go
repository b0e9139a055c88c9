// Package errors provides structured error types for the snapshot store and
// comparison engine.
//
// Codes mirror the failure taxonomy of a backup or diff run. Item-local codes
// (MISSING_SOURCE, COPY_FAILURE, TOOL_UNAVAILABLE, NO_BASELINE,
// NORMALIZATION_MISMATCH) are reported against the source, tool, or target
// they belong to and never abort the run. STORE_UNWRITABLE, CONFLICT and
// INVALID_REQUEST are fatal to the invocation; see IsFatal.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeToolUnavailable,
//	    "listening ports capture failed",
//	    ctx.Err(),
//	    map[string]any{
//	        "command": "ss",
//	    },
//	)
package errors
