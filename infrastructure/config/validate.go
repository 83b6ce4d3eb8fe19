package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator is an interface for types that can validate themselves.
type Validator interface {
	Validate() error
}

// Collector accumulates validation errors so a config can report every problem at once.
type Collector struct {
	errs []error
}

// Add records err if it is non-nil.
func (c *Collector) Add(err error) {
	if err != nil {
		c.errs = append(c.errs, err)
	}
}

// Err returns the joined errors, or nil when nothing was recorded.
func (c *Collector) Err() error {
	return errors.Join(c.errs...)
}

// ValidateRequired checks if a string field is not empty.
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePositive checks that a numeric field is greater than zero.
func ValidatePositive[N ~int | ~int64 | ~float64](field string, value N) error {
	if value <= 0 {
		return &ValidationError{Field: field, Message: "must be greater than 0"}
	}
	return nil
}

// ValidatePort checks if a port number is valid.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateOneOf checks that value is one of allowed.
func ValidateOneOf(field, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return &ValidationError{
		Field:   field,
		Message: "must be one of: " + strings.Join(allowed, ", "),
	}
}

// ValidateLogLevel checks if a log level is valid.
func ValidateLogLevel(level string) error {
	return ValidateOneOf("logging.level", level, "debug", "info", "warn", "warning", "error", "fatal")
}

// ValidateLogFormat checks if a log format is valid.
func ValidateLogFormat(format string) error {
	return ValidateOneOf("logging.format", format, "json", "console")
}
