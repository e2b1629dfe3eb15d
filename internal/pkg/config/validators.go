// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrMissingRequiredConfig is returned when a required setting is empty
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Validator checks one aspect of the configuration
type Validator interface {
	Validate(cfg *Config) error
}

// BasicValidator performs basic configuration validation
type BasicValidator struct{}

// Validate performs basic validation
func (v *BasicValidator) Validate(cfg *Config) error {
	// Validate required fields using reflection
	if err := validateRequiredFields(cfg); err != nil {
		return err
	}

	// Zero disables rate limiting
	if cfg.Security.RateLimitRequests < 0 {
		return fmt.Errorf("rate_limit_requests must not be negative")
	}
	if cfg.Security.RateLimitRequests > 0 && cfg.Security.RateLimitDuration <= 0 {
		return fmt.Errorf("rate_limit_duration must be positive")
	}

	if cfg.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("max_upload_size_mb must be positive")
	}

	return nil
}

// ServerValidator checks the listener settings. Only commands that serve
// HTTP apply it.
type ServerValidator struct{}

// Validate performs server validation
func (v *ServerValidator) Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Server.Host) == "" {
		return fmt.Errorf("%w: Server.Host", ErrMissingRequiredConfig)
	}
	if strings.TrimSpace(cfg.Server.Port) == "" {
		return fmt.Errorf("%w: Server.Port", ErrMissingRequiredConfig)
	}
	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid server port %q", cfg.Server.Port)
	}
	return nil
}

// StorageValidator checks backend-specific storage settings
type StorageValidator struct{}

// Validate performs storage validation
func (v *StorageValidator) Validate(cfg *Config) error {
	switch cfg.Storage.PhotoBackend {
	case PhotoBackendLocal:
		if cfg.Storage.UploadDir == "" {
			return fmt.Errorf("%w: Storage.UploadDir", ErrMissingRequiredConfig)
		}
	case PhotoBackendS3:
		if cfg.AWS.S3Bucket == "" {
			return fmt.Errorf("%w: AWS.S3Bucket", ErrMissingRequiredConfig)
		}
		if cfg.AWS.Region == "" {
			return fmt.Errorf("%w: AWS.Region", ErrMissingRequiredConfig)
		}
		// The orphan sweep deletes every unreferenced object under the prefix
		if cfg.Storage.CleanupInterval > 0 && strings.Trim(cfg.AWS.S3Prefix, "/") == "" {
			return fmt.Errorf("%w: AWS.S3Prefix (required while the orphan cleanup is enabled)", ErrMissingRequiredConfig)
		}
	default:
		return fmt.Errorf("unknown photo backend %q", cfg.Storage.PhotoBackend)
	}

	if cfg.Storage.CleanupInterval < 0 || cfg.Storage.CleanupGracePeriod < 0 {
		return fmt.Errorf("cleanup durations must not be negative")
	}

	return nil
}

// ProductionValidator performs strict validation for production environments
type ProductionValidator struct{}

// Validate performs production-specific validation
func (v *ProductionValidator) Validate(cfg *Config) error {
	// Ensure secure defaults in production
	if !cfg.Security.SecureHeaders {
		return fmt.Errorf("secure headers must be enabled in production")
	}

	if len(cfg.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed origins must be configured in production")
	}

	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}

	if cfg.App.Debug {
		return fmt.Errorf("debug mode must be disabled in production")
	}

	return nil
}

// validateRequiredFields uses reflection to check required struct tags
func validateRequiredFields(cfg interface{}) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	return validateStruct(v, "")
}

func validateStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		fieldName := fieldType.Name

		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		// Check for required tag
		if required := fieldType.Tag.Get("required"); required == "true" {
			if isZeroValue(field) {
				return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, fieldName)
			}
		}

		// Recursively check nested structs
		if field.Kind() == reflect.Struct {
			if err := validateStruct(field, fieldName); err != nil {
				return err
			}
		}
	}

	return nil
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
