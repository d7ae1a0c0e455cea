package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Iron-Ham/nextron/internal/bundler"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "bundler.sourcemap")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateProject()...)
	errors = append(errors, c.validateCommands()...)
	errors = append(errors, c.validateBundler()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateProject validates source directories, port and startup delay
func (c *Config) validateProject() []ValidationError {
	var errors []ValidationError

	for field, dir := range map[string]string{
		"renderer_src_dir": c.RendererSrcDir,
		"main_src_dir":     c.MainSrcDir,
	} {
		if strings.TrimSpace(dir) == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   dir,
				Message: "must not be empty",
			})
			continue
		}
		if filepath.IsAbs(dir) || strings.HasPrefix(filepath.Clean(dir), "..") {
			errors = append(errors, ValidationError{
				Field:   field,
				Value:   dir,
				Message: "must be a path inside the project directory",
			})
		}
	}

	if c.RendererSrcDir != "" && filepath.Clean(c.RendererSrcDir) == filepath.Clean(c.MainSrcDir) {
		errors = append(errors, ValidationError{
			Field:   "main_src_dir",
			Value:   c.MainSrcDir,
			Message: "must differ from renderer_src_dir",
		})
	}

	if c.RendererPort < 1 || c.RendererPort > 65535 {
		errors = append(errors, ValidationError{
			Field:   "renderer_port",
			Value:   c.RendererPort,
			Message: "must be between 1 and 65535",
		})
	}

	if c.StartupDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "startup_delay",
			Value:   c.StartupDelay,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateCommands validates the renderer and host executables
func (c *Config) validateCommands() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Renderer.Command) == "" {
		errors = append(errors, ValidationError{
			Field:   "renderer.command",
			Value:   c.Renderer.Command,
			Message: "must not be empty",
		})
	}
	if strings.TrimSpace(c.Host.Command) == "" {
		errors = append(errors, ValidationError{
			Field:   "host.command",
			Value:   c.Host.Command,
			Message: "must not be empty",
		})
	}
	if c.Host.AppPath == "" {
		errors = append(errors, ValidationError{
			Field:   "host.app_path",
			Value:   c.Host.AppPath,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateBundler validates the host bundle overrides
func (c *Config) validateBundler() []ValidationError {
	var errors []ValidationError
	b := c.Bundler

	if _, _, err := bundler.ParseTarget(b.Target); err != nil {
		errors = append(errors, ValidationError{
			Field:   "bundler.target",
			Value:   b.Target,
			Message: err.Error(),
		})
	}

	if b.Sourcemap != "" && !slices.Contains(bundler.ValidSourcemaps(), strings.ToLower(b.Sourcemap)) {
		errors = append(errors, ValidationError{
			Field:   "bundler.sourcemap",
			Value:   b.Sourcemap,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(bundler.ValidSourcemaps(), ", ")),
		})
	}

	if _, err := ParsePairs(b.Define); err != nil {
		errors = append(errors, ValidationError{Field: "bundler.define", Value: b.Define, Message: err.Error()})
	}
	if _, err := ParsePairs(b.Alias); err != nil {
		errors = append(errors, ValidationError{Field: "bundler.alias", Value: b.Alias, Message: err.Error()})
	}
	if loaders, err := ParsePairs(b.Loader); err != nil {
		errors = append(errors, ValidationError{Field: "bundler.loader", Value: b.Loader, Message: err.Error()})
	} else {
		for ext, name := range loaders {
			if _, err := bundler.ParseLoader(ext, name); err != nil {
				errors = append(errors, ValidationError{
					Field:   "bundler.loader",
					Value:   ext + "=" + name,
					Message: err.Error(),
				})
			}
		}
	}

	for _, pattern := range b.Ignore {
		if err := bundler.ValidateGlob(pattern); err != nil {
			errors = append(errors, ValidationError{
				Field:   "bundler.ignore",
				Value:   pattern,
				Message: err.Error(),
			})
		}
	}

	for _, dir := range b.WatchDirs {
		if strings.TrimSpace(dir) == "" {
			errors = append(errors, ValidationError{
				Field:   "bundler.watch_dirs",
				Value:   dir,
				Message: "entries must not be empty",
			})
		}
	}

	if b.DebounceMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "bundler.debounce_ms",
			Value:   b.DebounceMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// ParsePairs splits "key=value" entries into a map. Later entries win.
func ParsePairs(items []string) (map[string]string, error) {
	out := make(map[string]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("entry %q must have the form key=value", item)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}
