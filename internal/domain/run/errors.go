package run

import "fmt"

// NotFoundError indicates no run exists with the given id
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("run %s not found", e.ID)
}

// TransitionError indicates a status change the run lifecycle does not allow
type TransitionError struct {
	ID   string
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("run %s cannot go from %s to %s", e.ID, e.From, e.To)
}
