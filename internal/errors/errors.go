// Package errors provides centralized error definitions and error handling utilities
// for nextron. It defines the three error families the dev supervisor and the
// build pipeline distinguish, sentinel errors, and classification helpers.
//
// # Error Types
//
//   - ConfigError: invalid or contradictory user configuration, including
//     rejected legacy flags. Reported with a remediation hint; aborts the
//     command before any process is spawned.
//   - CompileError: a bundle build failed. During a dev session these are
//     surfaced as diagnostics and never terminate the session.
//   - ProcessError: a child process failed to spawn or exited unexpectedly.
//
// # Usage
//
//	err := errors.NewConfigError("the option --port has been removed", errors.ErrRemovedFlag).
//		WithFlag("port").
//		WithHint("use --renderer-port 3000 instead")
//
//	if errors.Is(err, errors.ErrRemovedFlag) { ... }
//
//	var cfgErr *errors.ConfigError
//	if errors.As(err, &cfgErr) {
//		fmt.Println(cfgErr.Hint)
//	}
//
// # Exit Codes
//
// [ExitCode] maps any error returned by a command to the process exit status.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that end the session.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Configuration sentinel errors
var (
	// ErrRemovedFlag indicates a command-line option that is no longer supported.
	ErrRemovedFlag = New("option has been removed")
	// ErrInvalidConfig indicates the project configuration failed validation.
	ErrInvalidConfig = New("invalid configuration")
	// ErrEntryNotFound indicates the host-process entry source file is missing.
	ErrEntryNotFound = New("entry point not found")
	// ErrPackageJSON indicates package.json is missing or unreadable.
	ErrPackageJSON = New("package.json could not be read")
)

// Build sentinel errors
var (
	// ErrCompileFailed indicates the bundler reported errors.
	ErrCompileFailed = New("compilation failed")
	// ErrBundlerSetup indicates the bundler could not be initialized.
	ErrBundlerSetup = New("bundler setup failed")
)

// Process sentinel errors
var (
	// ErrSpawnFailed indicates a child process could not be started.
	ErrSpawnFailed = New("process failed to start")
	// ErrSupervisorTerminated indicates an operation on a finished dev session.
	ErrSupervisorTerminated = New("supervisor terminated")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// NextronError is the base interface for all nextron errors.
type NextronError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users without a stack of internal context.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain Errors
// -----------------------------------------------------------------------------

// ConfigError represents invalid user configuration.
//
// Example:
//
//	err := errors.NewConfigError("the option --inspect has been removed", errors.ErrRemovedFlag).
//		WithFlag("inspect").
//		WithHint(`use --electron-options="--inspect=9229" instead`)
type ConfigError struct {
	baseError
	Field string
	Flag  string
	Hint  string
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityCritical,
			userFacing: true,
		},
	}
}

// WithField records the configuration key at fault.
func (e *ConfigError) WithField(field string) *ConfigError {
	e.Field = field
	return e
}

// WithFlag records the command-line flag at fault.
func (e *ConfigError) WithFlag(flag string) *ConfigError {
	e.Flag = flag
	return e
}

// WithHint attaches remediation text shown to the user.
func (e *ConfigError) WithHint(hint string) *ConfigError {
	e.Hint = hint
	return e
}

// Error returns the formatted error message.
func (e *ConfigError) Error() string {
	var parts []string
	if e.Flag != "" {
		parts = append(parts, fmt.Sprintf("flag=--%s", e.Flag))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}

	prefix := "config error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("config error [%s]", strings.Join(parts, ", "))
	}

	msg := fmt.Sprintf("%s: %s", prefix, e.message)
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if e.Hint != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Hint)
	}
	return msg
}

// Message returns the bare message without the structured prefix.
func (e *ConfigError) Message() string {
	return e.message
}

// Is checks if this error matches the target.
func (e *ConfigError) Is(target error) bool {
	if _, ok := target.(*ConfigError); ok {
		return true
	}
	if target == ErrInvalidConfig {
		return true
	}
	return e.baseError.Is(target)
}

// CompileError represents a failed bundle build.
type CompileError struct {
	baseError
	Diagnostics []string
}

// NewCompileError creates a new CompileError carrying the bundler diagnostics.
func NewCompileError(message string, diagnostics []string) *CompileError {
	return &CompileError{
		baseError: baseError{
			message:    message,
			cause:      ErrCompileFailed,
			severity:   SeverityError,
			userFacing: true,
		},
		Diagnostics: diagnostics,
	}
}

// Error returns the formatted error message.
func (e *CompileError) Error() string {
	if len(e.Diagnostics) == 0 {
		return fmt.Sprintf("compile error: %s", e.message)
	}
	return fmt.Sprintf("compile error: %s (%d diagnostics)", e.message, len(e.Diagnostics))
}

// Is checks if this error matches the target.
func (e *CompileError) Is(target error) bool {
	if _, ok := target.(*CompileError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ProcessError represents a child process failure.
//
// Example:
//
//	err := errors.NewProcessError("failed to start renderer", spawnErr).
//		WithProcess("renderer").
//		WithCommand("next")
type ProcessError struct {
	baseError
	Process string
	Command string
}

// NewProcessError creates a new ProcessError.
func NewProcessError(message string, cause error) *ProcessError {
	return &ProcessError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithProcess records which supervised process failed.
func (e *ProcessError) WithProcess(name string) *ProcessError {
	e.Process = name
	return e
}

// WithCommand records the executable that was launched.
func (e *ProcessError) WithCommand(command string) *ProcessError {
	e.Command = command
	return e
}

// WithSeverity sets the error severity.
func (e *ProcessError) WithSeverity(s Severity) *ProcessError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *ProcessError) Error() string {
	var parts []string
	if e.Process != "" {
		parts = append(parts, fmt.Sprintf("process=%s", e.Process))
	}
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command=%s", e.Command))
	}

	prefix := "process error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("process error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ProcessError) Is(target error) bool {
	if _, ok := target.(*ProcessError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var nextronErr NextronError
	if As(err, &nextronErr) {
		return nextronErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement NextronError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var nextronErr NextronError
	if As(err, &nextronErr) {
		return nextronErr.Severity()
	}
	return SeverityError
}

// ExitCode maps a command error to a process exit status.
// Every non-nil error exits non-zero; nil is a clean shutdown.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
