package comparator

import "fmt"

// Kind classifies how a profile relates to the live configuration.
type Kind int

const (
	// NoMatch means the profile differs outside the ignored fields
	NoMatch Kind = iota
	// FullMatch means the profile equals the live configuration
	FullMatch
	// PartialMatch means every difference lies in an ignored top-level field
	PartialMatch
	// Error means the comparison could not be carried out
	Error
)

// String returns string representation of Kind
func (k Kind) String() string {
	switch k {
	case FullMatch:
		return "full_match"
	case PartialMatch:
		return "partial_match"
	case NoMatch:
		return "no_match"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Status is the result of one comparison. Reason is set only for Error.
type Status struct {
	Kind   Kind   `json:"kind"`
	Reason string `json:"reason,omitempty"`
}

// ErrorStatus builds an Error status with the given reason.
func ErrorStatus(reason string) Status {
	return Status{Kind: Error, Reason: reason}
}

// IsError reports whether the status carries an error.
func (s Status) IsError() bool {
	return s.Kind == Error
}

func (s Status) String() string {
	if s.Kind == Error {
		return fmt.Sprintf("error(%s)", s.Reason)
	}
	return s.Kind.String()
}
