package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aleister1102/cfgswitch/internal/common"
	"github.com/aleister1102/cfgswitch/internal/comparator"
	"github.com/go-playground/validator/v10"
)

// JSONTypes are the value types a FieldTypes entry may require.
var JSONTypes = []string{"string", "number", "boolean", "array", "object"}

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return common.NewValidationError("config", cfg, "config cannot be nil")
	}

	validate := newValidator()

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("configuration validation error: %w", err)
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", trimNamespace(e.Namespace()), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Value() != nil && e.Value() != "" {
			msg += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		messages = append(messages, msg)
	}
	return &common.ConfigurationError{
		Reason: fmt.Sprintf("configuration validation failed:\n  %s", strings.Join(messages, "\n  ")),
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "trace", "debug", "info", "warn", "error", "fatal", "panic":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "console", "text", "json":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("iconset", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "auto", "emoji", "ascii":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("compression", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(fl.Field().String()) {
		case "", "zstd", "snappy", "gzip", "none":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("ignoredfield", func(fl validator.FieldLevel) bool {
		return comparator.ValidateFieldName(fl.Field().String()) == nil
	})

	_ = validate.RegisterValidation("jsontype", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, t := range JSONTypes {
			if value == t {
				return true
			}
		}
		return false
	})

	// A bare file name: no directory components.
	_ = validate.RegisterValidation("plainname", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return name != "" && name == filepath.Base(name) && !strings.ContainsAny(name, `/\`)
	})

	return validate
}

// trimNamespace drops the root struct name so messages read "MonitorConfig.IntervalMinutes".
func trimNamespace(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
