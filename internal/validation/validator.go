package validation

import (
	"encoding/json"
	"errors"
	"unicode/utf8"
)

// JSONValidator runs the syntax check and then every rule in order.
type JSONValidator struct {
	rules []Rule
}

// NewJSONValidator creates a validator with the given rules and no others.
func NewJSONValidator(rules ...Rule) *JSONValidator {
	return &JSONValidator{rules: rules}
}

// NewDefaultValidator only requires an object at the top level.
func NewDefaultValidator() *JSONValidator {
	return NewJSONValidator(ObjectRule{})
}

// NewValidatorFromSettings builds the object rule plus the configured required fields and types.
func NewValidatorFromSettings(required []string, types map[string]string) (*JSONValidator, error) {
	v := NewDefaultValidator()
	if len(required) > 0 {
		v.AddRule(RequiredFieldsRule{Fields: append([]string(nil), required...)})
	}
	if len(types) > 0 {
		parsed := make(map[string]FieldType, len(types))
		for name, raw := range types {
			t, err := ParseFieldType(raw)
			if err != nil {
				return nil, err
			}
			parsed[name] = t
		}
		v.AddRule(FieldTypeRule{Types: parsed})
	}
	return v, nil
}

// AddRule appends a semantic rule.
func (v *JSONValidator) AddRule(rule Rule) {
	v.rules = append(v.rules, rule)
}

// RuleNames lists the configured rules in evaluation order.
func (v *JSONValidator) RuleNames() []string {
	names := make([]string, 0, len(v.rules))
	for _, r := range v.rules {
		names = append(names, r.Name())
	}
	return names
}

// Validate checks content. A syntax error is the only error reported for invalid JSON.
func (v *JSONValidator) Validate(content []byte) Result {
	var doc any
	if err := json.Unmarshal(content, &doc); err != nil {
		return newResult([]ValidationError{syntaxError(content, err)})
	}

	var errs []ValidationError
	for _, rule := range v.rules {
		errs = append(errs, rule.Validate(doc)...)
	}
	return newResult(errs)
}

func syntaxError(content []byte, err error) ValidationError {
	offset := int64(len(content))
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset = syntaxErr.Offset
	}
	line, column := position(content, offset)
	return ValidationError{Line: line, Column: column, Message: err.Error(), ErrorType: ErrorTypeSyntax}
}

// position maps the byte offset reported by encoding/json, which counts the
// offending byte as read, to a 1-based line and rune column.
func position(content []byte, offset int64) (int, int) {
	idx := int(offset) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(content) {
		idx = len(content)
	}

	line, lineStart := 1, 0
	for i := 0; i < idx; i++ {
		if content[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, utf8.RuneCount(content[lineStart:idx]) + 1
}
