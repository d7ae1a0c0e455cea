package errors

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ConfigError Tests
// -----------------------------------------------------------------------------

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("the option --port has been removed", ErrRemovedFlag)

	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
	if err.Message() != "the option --port has been removed" {
		t.Errorf("Message() = %q", err.Message())
	}
}

func TestConfigError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "bare",
			err:  NewConfigError("bad value", nil),
			want: "config error: bad value",
		},
		{
			name: "flag and hint",
			err: NewConfigError("the option --port has been removed", ErrRemovedFlag).
				WithFlag("port").
				WithHint("use --renderer-port 3000 instead"),
			want: "config error [flag=--port]: the option --port has been removed: option has been removed (use --renderer-port 3000 instead)",
		},
		{
			name: "field",
			err:  NewConfigError("must be positive", nil).WithField("renderer_port"),
			want: "config error [field=renderer_port]: must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigError_Is(t *testing.T) {
	err := NewConfigError("removed", ErrRemovedFlag)

	if !errors.Is(err, ErrRemovedFlag) {
		t.Error("expected ConfigError to match its cause")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("expected ConfigError to match ErrInvalidConfig")
	}
	if errors.Is(err, ErrSpawnFailed) {
		t.Error("ConfigError should not match ErrSpawnFailed")
	}

	wrapped := fmt.Errorf("dev: %w", err)
	var cfgErr *ConfigError
	if !errors.As(wrapped, &cfgErr) || cfgErr.Flag != "" {
		t.Errorf("errors.As() = %v for wrapped ConfigError", cfgErr)
	}
}

// -----------------------------------------------------------------------------
// CompileError Tests
// -----------------------------------------------------------------------------

func TestCompileError(t *testing.T) {
	err := NewCompileError("host bundle", []string{"SyntaxError: x", "SyntaxError: y"})

	if !errors.Is(err, ErrCompileFailed) {
		t.Error("expected CompileError to match ErrCompileFailed")
	}
	if got, want := err.Error(), "compile error: host bundle (2 diagnostics)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var target *CompileError
	if !errors.As(fmt.Errorf("build: %w", err), &target) {
		t.Fatal("errors.As failed for wrapped CompileError")
	}
	if len(target.Diagnostics) != 2 {
		t.Errorf("Diagnostics = %v, want 2 entries", target.Diagnostics)
	}
}

// -----------------------------------------------------------------------------
// ProcessError Tests
// -----------------------------------------------------------------------------

func TestProcessError_Error(t *testing.T) {
	cause := errors.New("exec: \"next\": executable file not found in $PATH")
	err := NewProcessError("failed to start", cause).
		WithProcess("renderer").
		WithCommand("next")

	want := `process error [process=renderer, command=next]: failed to start: exec: "next": executable file not found in $PATH`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("ProcessError should match its cause")
	}
	if !errors.Is(err, &ProcessError{}) {
		t.Error("ProcessError should match the *ProcessError type target")
	}
}

func TestProcessError_WithSeverity(t *testing.T) {
	err := NewProcessError("host crashed", nil).WithSeverity(SeverityWarning)
	if GetSeverity(err) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want %v", GetSeverity(err), SeverityWarning)
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"config", NewConfigError("x", nil), true},
		{"wrapped process", fmt.Errorf("ctx: %w", NewProcessError("x", nil)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity_Defaults(t *testing.T) {
	if GetSeverity(nil) != SeverityDebug {
		t.Error("GetSeverity(nil) should be SeverityDebug")
	}
	if GetSeverity(errors.New("x")) != SeverityError {
		t.Error("GetSeverity(plain) should be SeverityError")
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("ExitCode(nil) should be 0")
	}
	if ExitCode(NewConfigError("removed", ErrRemovedFlag)) != 1 {
		t.Error("ExitCode(ConfigError) should be 1")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	err := Wrap(ErrSpawnFailed, "renderer next")
	if !errors.Is(err, ErrSpawnFailed) {
		t.Error("Wrap should preserve the chain")
	}
	if err.Error() != "renderer next: process failed to start" {
		t.Errorf("Wrap() = %q", err.Error())
	}
}
