package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/0fflineDocs/Cipher/internal/selection"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "council.max_members")
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

// maxRequestTimeoutSeconds bounds api.request_timeout_seconds.
const maxRequestTimeoutSeconds = 600

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validateCouncil()...)
	errors = append(errors, c.validateDebate()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateOutput()...)

	return errors
}

func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError

	u, err := url.Parse(c.API.BaseURL)
	switch {
	case c.API.BaseURL == "":
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   c.API.BaseURL,
			Message: "must not be empty",
		})
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   c.API.BaseURL,
			Message: "must be an http or https URL",
		})
	}

	if c.API.RequestTimeoutSeconds < 1 || c.API.RequestTimeoutSeconds > maxRequestTimeoutSeconds {
		errors = append(errors, ValidationError{
			Field:   "api.request_timeout_seconds",
			Value:   c.API.RequestTimeoutSeconds,
			Message: fmt.Sprintf("must be between 1 and %d", maxRequestTimeoutSeconds),
		})
	}

	return errors
}

func (c *Config) validateCouncil() []ValidationError {
	var errors []ValidationError

	if c.Council.MaxMembers < 1 || c.Council.MaxMembers > selection.DefaultMaxMembers {
		errors = append(errors, ValidationError{
			Field:   "council.max_members",
			Value:   c.Council.MaxMembers,
			Message: fmt.Sprintf("must be between 1 and %d", selection.DefaultMaxMembers),
		})
	}

	if len(c.Council.Members) == 0 {
		errors = append(errors, ValidationError{
			Field:   "council.members",
			Value:   c.Council.Members,
			Message: "must name at least one persona",
		})
	} else if c.Council.MaxMembers > 0 && len(c.Council.Members) > c.Council.MaxMembers {
		errors = append(errors, ValidationError{
			Field:   "council.members",
			Value:   len(c.Council.Members),
			Message: fmt.Sprintf("must not exceed council.max_members (%d)", c.Council.MaxMembers),
		})
	}

	seen := make(map[string]bool, len(c.Council.Members))
	for _, name := range c.Council.Members {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, ValidationError{
				Field:   "council.members",
				Value:   name,
				Message: "must not contain empty names",
			})
			continue
		}
		if seen[name] {
			errors = append(errors, ValidationError{
				Field:   "council.members",
				Value:   name,
				Message: "must not contain duplicates",
			})
		}
		seen[name] = true
	}

	if strings.TrimSpace(c.Council.Chairman) == "" {
		errors = append(errors, ValidationError{
			Field:   "council.chairman",
			Value:   c.Council.Chairman,
			Message: "must not be empty",
		})
	}

	return errors
}

func (c *Config) validateDebate() []ValidationError {
	var errors []ValidationError

	if c.Debate.MaxRounds < selection.MinRounds || c.Debate.MaxRounds > selection.MaxRounds {
		errors = append(errors, ValidationError{
			Field:   "debate.max_rounds",
			Value:   c.Debate.MaxRounds,
			Message: fmt.Sprintf("must be between %d and %d", selection.MinRounds, selection.MaxRounds),
		})
		return errors
	}

	if c.Debate.NumRounds < selection.MinRounds || c.Debate.NumRounds > c.Debate.MaxRounds {
		errors = append(errors, ValidationError{
			Field:   "debate.num_rounds",
			Value:   c.Debate.NumRounds,
			Message: fmt.Sprintf("must be between %d and debate.max_rounds (%d)", selection.MinRounds, c.Debate.MaxRounds),
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	if c.Output.Color != "" && !slices.Contains(ValidColorModes(), c.Output.Color) {
		errors = append(errors, ValidationError{
			Field:   "output.color",
			Value:   c.Output.Color,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidColorModes(), ", ")),
		})
	}

	return errors
}
