package chat

import "fmt"

// ValidationKind classifies a rejected display name.
type ValidationKind int

const (
	EmptyName ValidationKind = iota + 1
	NameTooLong
)

func (k ValidationKind) String() string {
	switch k {
	case EmptyName:
		return "empty"
	case NameTooLong:
		return "too long"
	default:
		return "unknown"
	}
}

// ValidationError is returned by Rename when the requested name is rejected.
type ValidationError struct {
	Kind ValidationKind
	Name string
}

// Sentinels for errors.Is comparisons.
var (
	ErrEmptyName   = &ValidationError{Kind: EmptyName}
	ErrNameTooLong = &ValidationError{Kind: NameTooLong}
)

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Kind)
}

// Is matches any ValidationError of the same kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// help is the directed reply sent to the session whose rename was rejected.
func (e *ValidationError) help() string {
	switch e.Kind {
	case NameTooLong:
		return fmt.Sprintf("new name is too long: %d characters limit", MaxNameLength)
	default:
		return CmdUser + " [newName]"
	}
}
