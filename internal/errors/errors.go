package errors

import (
	"errors"
	"fmt"
)

// Exit codes for pvemesh-ctl
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitConfigError      = 2
	ExitInventoryFailed  = 3
	ExitTemplateNotFound = 4
	ExitContainerFailed  = 5
	ExitNotReady         = 6
	ExitDeployFailed     = 7
)

// CtlError is the base error type for pvemesh-ctl
type CtlError struct {
	Code    int
	Message string
	Cause   error
}

func (e *CtlError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CtlError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *CtlError) ExitCode() int {
	return e.Code
}

// New creates a new CtlError
func New(code int, message string) *CtlError {
	return &CtlError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a CtlError
func Wrap(code int, message string, cause error) *CtlError {
	return &CtlError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *CtlError {
	return Wrap(ExitConfigError, message, cause)
}

// InventoryFailed returns an error for cluster inventory query failures.
// The inventory must fail loudly: defaulting the VMID after a failed query
// could collide with existing low-numbered containers.
func InventoryFailed(cause error) *CtlError {
	return Wrap(ExitInventoryFailed, "cluster inventory query failed", cause)
}

// TemplateNotFound returns an error for a missing OS template
func TemplateNotFound(filter string) *CtlError {
	return New(ExitTemplateNotFound, fmt.Sprintf("no template matching %q in the pveam catalog", filter))
}

// ContainerFailed returns an error for container operations
func ContainerFailed(op string, cause error) *CtlError {
	return Wrap(ExitContainerFailed, fmt.Sprintf("container %s failed", op), cause)
}

// NotReady returns an error when a container never reached the running state
func NotReady(vmid int, cause error) *CtlError {
	return Wrap(ExitNotReady, fmt.Sprintf("container %d did not become ready", vmid), cause)
}

// DeployFailed returns an error for in-container deployment steps
func DeployFailed(step string, cause error) *CtlError {
	return Wrap(ExitDeployFailed, fmt.Sprintf("deploy step %s failed", step), cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *CtlError {
	return New(ExitConfigError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var ctlErr *CtlError
	if errors.As(err, &ctlErr) {
		return ctlErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
