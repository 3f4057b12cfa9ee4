package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/redcode-editor/redcode/internal/language"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "editor.tab_width")
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
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Bounds for numeric settings.
const (
	minTabWidth   = 1
	maxTabWidth   = 16
	minDebounceMs = 10
	maxDebounceMs = 5000
	maxLogSizeMB  = 1000
	maxLogBackups = 20
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateEditor()...)
	errs = append(errs, c.validateTheme()...)
	errs = append(errs, c.validateSession()...)
	errs = append(errs, c.validateWatch()...)
	errs = append(errs, c.validateLogging()...)
	return errs
}

func (c *Config) validateEditor() []ValidationError {
	var errs []ValidationError

	prefix := c.Editor.UntitledPrefix
	if strings.TrimSpace(prefix) == "" {
		errs = append(errs, ValidationError{
			Field:   "editor.untitled_prefix",
			Value:   prefix,
			Message: "must not be empty",
		})
	} else if strings.ContainsAny(prefix, `/\`) || strings.Contains(prefix, "://") {
		// A prefix that looks like a path would be mistaken for a locator.
		errs = append(errs, ValidationError{
			Field:   "editor.untitled_prefix",
			Value:   prefix,
			Message: "must not contain path separators",
		})
	}

	if _, ok := language.FromMIMEType(c.Editor.DefaultMIMEType); !ok {
		var known []string
		for _, l := range language.All() {
			known = append(known, l.MIMEType())
		}
		errs = append(errs, ValidationError{
			Field:   "editor.default_mime_type",
			Value:   c.Editor.DefaultMIMEType,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(known, ", ")),
		})
	}

	if c.Editor.TabWidth < minTabWidth || c.Editor.TabWidth > maxTabWidth {
		errs = append(errs, ValidationError{
			Field:   "editor.tab_width",
			Value:   c.Editor.TabWidth,
			Message: fmt.Sprintf("must be between %d and %d", minTabWidth, maxTabWidth),
		})
	}

	return errs
}

func (c *Config) validateTheme() []ValidationError {
	if slices.Contains(ValidThemeModes(), c.Theme.Mode) {
		return nil
	}
	return []ValidationError{{
		Field:   "theme.mode",
		Value:   c.Theme.Mode,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidThemeModes(), ", ")),
	}}
}

func (c *Config) validateSession() []ValidationError {
	dir := c.Session.StateDir
	if dir == "" {
		return nil
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return []ValidationError{{
			Field:   "session.state_dir",
			Value:   dir,
			Message: "exists but is not a directory",
		}}
	}
	return nil
}

func (c *Config) validateWatch() []ValidationError {
	if !c.Watch.Enabled {
		return nil
	}
	if c.Watch.DebounceMs < minDebounceMs || c.Watch.DebounceMs > maxDebounceMs {
		return []ValidationError{{
			Field:   "watch.debounce_ms",
			Value:   c.Watch.DebounceMs,
			Message: fmt.Sprintf("must be between %d and %d", minDebounceMs, maxDebounceMs),
		}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	var errs []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	} else if c.Logging.MaxSizeMB > maxLogSizeMB {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 || c.Logging.MaxBackups > maxLogBackups {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: fmt.Sprintf("must be between 0 and %d", maxLogBackups),
		})
	}

	return errs
}
