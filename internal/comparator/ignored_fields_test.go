package comparator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFieldName(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		wantErr bool
	}{
		{"simple", "model", false},
		{"camel case", "feedbackSurveyState", false},
		{"surrounding spaces are trimmed", "  model ", false},
		{"dotted", "env.PATH", false},
		{"max length", strings.Repeat("a", MaxFieldNameLength), false},
		{"empty", "", true},
		{"only spaces", "   ", true},
		{"inner space", "my field", true},
		{"tab", "my\tfield", true},
		{"brace", "a{b", true},
		{"bracket", "a]", true},
		{"double quote", `a"b`, true},
		{"single quote", "a'b", true},
		{"backslash", `a\b`, true},
		{"too long", strings.Repeat("a", MaxFieldNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFieldName(tt.field)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeIgnoredFields(t *testing.T) {
	got := NormalizeIgnoredFields([]string{" model", "theme ", "", "model", "  ", "env"})
	assert.Equal(t, []string{"model", "theme", "env"}, got)
	assert.Empty(t, NormalizeIgnoredFields(nil))
}

func TestNewIgnoredFieldSet(t *testing.T) {
	set, err := NewIgnoredFieldSet([]string{" model ", "model", "feedbackSurveyState"})
	require.NoError(t, err)
	assert.Equal(t, []string{"model", "feedbackSurveyState"}, set.Names())
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("model"))
	assert.False(t, set.Contains(" model "))
	assert.Equal(t, "[model, feedbackSurveyState]", set.String())

	_, err = NewIgnoredFieldSet([]string{"model", ""})
	assert.Error(t, err)

	_, err = NewIgnoredFieldSet([]string{"bad name"})
	assert.Error(t, err)
}

func TestIgnoredFieldSet_ZeroValue(t *testing.T) {
	var set IgnoredFieldSet
	assert.Equal(t, 0, set.Len())
	assert.False(t, set.Contains("model"))
	assert.Empty(t, set.Names())
}

func TestIgnoredFieldSet_NamesIsACopy(t *testing.T) {
	set := DefaultIgnoredFieldSet()
	names := set.Names()
	names[0] = "changed"
	assert.Equal(t, DefaultIgnoredFields(), set.Names())
}
