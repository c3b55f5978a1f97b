// Package errors provides typed errors with exit codes for pvemesh-ctl.
//
// # Error Types
//
// CtlError is the base error type that wraps an error with an exit code:
//
//	type CtlError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
// Defined exit codes for different error categories:
//
//	ExitSuccess          = 0  // Success
//	ExitGeneralError     = 1  // General/unknown errors
//	ExitConfigError      = 2  // Configuration or validation error
//	ExitInventoryFailed  = 3  // Cluster resource inventory query failed
//	ExitTemplateNotFound = 4  // OS template not found in catalog
//	ExitContainerFailed  = 5  // Container operation failed
//	ExitNotReady         = 6  // Container never reached running state
//	ExitDeployFailed     = 7  // In-container deployment failed
//
// # Error Constructors
//
// Use the provided constructors for consistent error creation:
//
//	errors.InventoryFailed(err)
//	errors.TemplateNotFound("archlinux-base")
//	errors.ContainerFailed("create", err)
//	errors.DeployFailed("compose-up", err)
//
// # Extracting Exit Codes
//
// Use GetExitCode to extract the exit code from an error chain:
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
