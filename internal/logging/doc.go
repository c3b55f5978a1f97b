// Package logging provides logging utilities for pvemesh-ctl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("allocating vmid", "candidates", len(ids))
//	logging.Warn("skipping malformed resource id", "id", raw)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Downloading template %s...", name)
//	logging.UserSuccess("Container %d provisioned", vmid)
//	logging.UserWarning("authorized keys fetch failed: %v", err)
//	logging.UserError("Provisioning aborted: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
package logging
