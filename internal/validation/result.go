// Package validation checks profile content before it is saved or switched to.
// Syntax is checked first; semantic rules run only on syntactically valid JSON.
package validation

import (
	"fmt"
	"strings"
)

// Error types reported in ValidationError.ErrorType.
const (
	ErrorTypeSyntax   = "syntax"
	ErrorTypeSemantic = "semantic"
)

// ValidationError is one problem found in a document. Line and Column are 1-based.
type ValidationError struct {
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Message   string `json:"message"`
	ErrorType string `json:"error_type"`
}

func (e ValidationError) String() string {
	return fmt.Sprintf("%d:%d %s: %s", e.Line, e.Column, e.ErrorType, e.Message)
}

// Result is the outcome of validating one document.
type Result struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}

// Summary joins all error messages on separate lines.
func (r Result) Summary() string {
	lines := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n")
}

func newResult(errs []ValidationError) Result {
	if errs == nil {
		errs = []ValidationError{}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs}
}
