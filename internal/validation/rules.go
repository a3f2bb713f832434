package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aleister1102/cfgswitch/internal/common"
)

// Rule inspects a decoded, syntactically valid document.
type Rule interface {
	Name() string
	Validate(doc any) []ValidationError
}

func semanticError(format string, args ...any) ValidationError {
	return ValidationError{Line: 1, Column: 1, Message: fmt.Sprintf(format, args...), ErrorType: ErrorTypeSemantic}
}

// ObjectRule requires the top-level value to be an object.
type ObjectRule struct{}

func (ObjectRule) Name() string { return "object_rule" }

func (ObjectRule) Validate(doc any) []ValidationError {
	if _, ok := doc.(map[string]any); ok {
		return nil
	}
	return []ValidationError{semanticError("Configuration must be a JSON object")}
}

// RequiredFieldsRule requires top-level keys to be present. Non-objects are left to ObjectRule.
type RequiredFieldsRule struct {
	Fields []string
}

func (RequiredFieldsRule) Name() string { return "required_fields" }

func (r RequiredFieldsRule) Validate(doc any) []ValidationError {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	var errs []ValidationError
	for _, field := range r.Fields {
		if _, present := obj[field]; !present {
			errs = append(errs, semanticError("Required field '%s' is missing", field))
		}
	}
	return errs
}

// FieldType is the JSON type a field must have.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
)

// ParseFieldType accepts the lowercase type names.
func ParseFieldType(s string) (FieldType, error) {
	switch t := FieldType(strings.ToLower(strings.TrimSpace(s))); t {
	case FieldString, FieldNumber, FieldBoolean, FieldArray, FieldObject:
		return t, nil
	default:
		return "", common.NewValidationError("field_type", s, "unknown JSON type")
	}
}

func (t FieldType) matches(v any) bool {
	switch t {
	case FieldString:
		_, ok := v.(string)
		return ok
	case FieldNumber:
		_, ok := v.(float64)
		return ok
	case FieldBoolean:
		_, ok := v.(bool)
		return ok
	case FieldArray:
		_, ok := v.([]any)
		return ok
	case FieldObject:
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}

// FieldTypeRule checks the type of top-level fields that are present.
type FieldTypeRule struct {
	Types map[string]FieldType
}

func (FieldTypeRule) Name() string { return "field_type" }

func (r FieldTypeRule) Validate(doc any) []ValidationError {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(r.Types))
	for name := range r.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []ValidationError
	for _, name := range names {
		value, present := obj[name]
		if present && !r.Types[name].matches(value) {
			errs = append(errs, semanticError("Field '%s' has incorrect type", name))
		}
	}
	return errs
}
