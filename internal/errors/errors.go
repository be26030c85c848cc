package errors

import "fmt"

// Exit codes returned to the shell. Each failure class gets its own code so
// scripts wrapping tunnelctl can distinguish a validation problem from a
// partial failure that left a remote tunnel behind.
const (
	ExitGeneralError = 1
	ExitValidation   = 2
	ExitProvision    = 3
	ExitConfigWrite  = 4
	ExitVHostPatch   = 5
)

// Error is an error with an associated process exit code.
type Error struct {
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error with an exit code.
func New(code int, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error with an exit code and an underlying cause.
func Wrap(code int, message string, cause error) error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// GetExitCode returns the exit code for an error, defaulting to 1.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ExitGeneralError
}

// ValidationFailed reports one or more invalid request fields.
func ValidationFailed(cause error) error {
	return Wrap(ExitValidation, "invalid request", cause)
}

// ProvisionFailed reports a failed remote tunnel creation. No local state
// was touched.
func ProvisionFailed(cause error) error {
	return Wrap(ExitProvision, "tunnel creation failed", cause)
}

// ConfigWriteFailed reports a local config-write failure after the remote
// tunnel was already created.
func ConfigWriteFailed(cause error) error {
	return Wrap(ExitConfigWrite, "failed to write routing config", cause)
}

// VHostPatchFailed reports a vhost-file failure after tunnel and config
// both succeeded.
func VHostPatchFailed(cause error) error {
	return Wrap(ExitVHostPatch, "failed to update virtual hosts", cause)
}
