package session

import "fmt"

// PreconditionError reports an action invoked before the state it requires
// exists. It signals a bug in the calling layer and is never retried or
// swallowed.
type PreconditionError struct {
	Action   string
	Requires string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Action, e.Requires)
}
