package comparator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFieldNameLength is the longest accepted ignored field name, in characters.
const MaxFieldNameLength = 100

const forbiddenFieldChars = "{}[]\"'\\"

// DefaultIgnoredFields returns the fields ignored when no settings are supplied.
func DefaultIgnoredFields() []string {
	return []string{"model", "feedbackSurveyState"}
}

// ValidateFieldName checks a single ignored field name after trimming.
func ValidateFieldName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}

	if strings.ContainsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(forbiddenFieldChars, r)
	}) {
		return fmt.Errorf("field name '%s' contains invalid characters", name)
	}

	if utf8.RuneCountInString(name) > MaxFieldNameLength {
		return fmt.Errorf("field name '%s' is too long (max %d characters)", name, MaxFieldNameLength)
	}

	return nil
}

// ValidateIgnoredFields checks every name; the first offending name is reported.
func ValidateIgnoredFields(names []string) error {
	for _, name := range names {
		if err := ValidateFieldName(name); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeIgnoredFields trims names, drops empty ones and removes duplicates.
// The first occurrence of a name keeps its position.
func NormalizeIgnoredFields(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// IgnoredFieldSet is an ordered set of top-level field names excluded from equality checks.
// The zero value is an empty set.
type IgnoredFieldSet struct {
	names []string
	index map[string]struct{}
}

// NewIgnoredFieldSet validates and normalizes names into a set.
func NewIgnoredFieldSet(names []string) (IgnoredFieldSet, error) {
	if err := ValidateIgnoredFields(names); err != nil {
		return IgnoredFieldSet{}, err
	}

	normalized := NormalizeIgnoredFields(names)
	index := make(map[string]struct{}, len(normalized))
	for _, name := range normalized {
		index[name] = struct{}{}
	}
	return IgnoredFieldSet{names: normalized, index: index}, nil
}

// DefaultIgnoredFieldSet returns the set built from DefaultIgnoredFields.
func DefaultIgnoredFieldSet() IgnoredFieldSet {
	set, _ := NewIgnoredFieldSet(DefaultIgnoredFields())
	return set
}

// Contains reports whether name is ignored.
func (s IgnoredFieldSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns the names in order.
func (s IgnoredFieldSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of names.
func (s IgnoredFieldSet) Len() int {
	return len(s.names)
}

func (s IgnoredFieldSet) String() string {
	return "[" + strings.Join(s.names, ", ") + "]"
}
