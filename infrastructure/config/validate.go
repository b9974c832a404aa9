package config

import "fmt"

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired rejects an empty value.
func ValidateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePort rejects ports outside 1..65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateLogLevel rejects unknown log levels.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
}

// Validate checks a DatabaseConfig that is enabled.
func (c *DatabaseConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := ValidateRequired("database.host", c.Host); err != nil {
		return err
	}
	if err := ValidatePort("database.port", c.Port); err != nil {
		return err
	}
	if err := ValidateRequired("database.user", c.User); err != nil {
		return err
	}
	return ValidateRequired("database.database", c.Database)
}
