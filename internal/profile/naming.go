package profile

import (
	"strings"
	"unicode/utf8"

	"github.com/aleister1102/cfgswitch/internal/common"
)

// MaxNameLength bounds profile names in runes.
const MaxNameLength = 100

// ValidateName checks that name can be used as a profile file name prefix.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return common.NewValidationError("name", name, "profile name cannot be empty")
	case name != strings.TrimSpace(name):
		return common.NewValidationError("name", name, "profile name cannot start or end with whitespace")
	case strings.EqualFold(name, CurrentID):
		return common.NewValidationError("name", name, "profile name is reserved")
	case strings.HasPrefix(name, "."):
		return common.NewValidationError("name", name, "profile name cannot start with a dot")
	case strings.ContainsAny(name, `/\:*?"<>|`):
		return common.NewValidationError("name", name, "profile name contains a forbidden character")
	case strings.ContainsRune(name, 0):
		return common.NewValidationError("name", name, "profile name contains a NUL byte")
	case utf8.RuneCountInString(name) > MaxNameLength:
		return common.NewValidationError("name", name, "profile name is too long")
	}
	return nil
}
