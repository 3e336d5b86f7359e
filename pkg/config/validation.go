package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// Backend sections are free-form maps decoded by the factories, so
	// only the cross-field rules live here.
	switch cfg.Storage.Type {
	case "badger":
		inMemory, _ := cfg.Storage.Badger["in_memory"].(bool)
		path, _ := cfg.Storage.Badger["path"].(string)
		if !inMemory && path == "" {
			return fmt.Errorf("storage.badger: path is required unless in_memory is true")
		}
	case "s3":
		if bucket, _ := cfg.Storage.S3["bucket"].(string); bucket == "" {
			return fmt.Errorf("storage.s3: bucket is required")
		}
		if region, _ := cfg.Storage.S3["region"].(string); region == "" {
			return fmt.Errorf("storage.s3: region is required")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
