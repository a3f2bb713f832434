package switcher

import (
	"fmt"
	"time"
)

// State is a step of a switch attempt.
type State int

const (
	Requested State = iota
	Validating
	Writing
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Requested:
		return "requested"
	case Validating:
		return "validating"
	case Writing:
		return "writing"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether no transition follows s.
func (s State) IsTerminal() bool {
	return s == Committed || s == RolledBack
}

// Transition records entering a state.
type Transition struct {
	State State     `json:"state"`
	At    time.Time `json:"at"`
}

// Attempt is the record of one switch.
type Attempt struct {
	ProfileID   string       `json:"profile_id"`
	Transitions []Transition `json:"transitions"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Err         error        `json:"-"`
}

// State returns the latest state entered.
func (a *Attempt) State() State {
	if len(a.Transitions) == 0 {
		return Requested
	}
	return a.Transitions[len(a.Transitions)-1].State
}

// Succeeded reports whether the attempt committed.
func (a *Attempt) Succeeded() bool {
	return a.State() == Committed
}

// Duration is the time from request to the terminal state.
func (a *Attempt) Duration() time.Duration {
	if a.FinishedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

// States lists the states in the order they were entered.
func (a *Attempt) States() []State {
	states := make([]State, len(a.Transitions))
	for i, t := range a.Transitions {
		states[i] = t.State
	}
	return states
}

// ErrorMessage returns the failure text, or "" for a committed attempt.
func (a *Attempt) ErrorMessage() string {
	if a.Err == nil {
		return ""
	}
	return a.Err.Error()
}

func (a *Attempt) enter(s State, at time.Time) {
	a.Transitions = append(a.Transitions, Transition{State: s, At: at})
	if s.IsTerminal() {
		a.FinishedAt = at
	}
}
