package session

import "fmt"

// ValidationError is returned for bad local input. Nothing is sent to the authority.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MalformedStateError means the authority's state could not be rendered.
// The previous rendering stays on screen.
type MalformedStateError struct {
	Placement string
	Err       error
}

func (e *MalformedStateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed board state %q", e.Placement)
	}
	return fmt.Sprintf("malformed board state %q: %v", e.Placement, e.Err)
}

func (e *MalformedStateError) Unwrap() error { return e.Err }

// AuthorityError wraps a failed start, legal-move, move or state call.
type AuthorityError struct {
	Op  string
	Err error
}

func (e *AuthorityError) Error() string { return fmt.Sprintf("authority %s failed: %v", e.Op, e.Err) }
func (e *AuthorityError) Unwrap() error  { return e.Err }
