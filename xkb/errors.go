package xkb

import "fmt"

// Reference kinds used by the error types below.
const (
	RefModifier = "modifier"
	RefGroup    = "group"
	RefLED      = "led"
	RefKeyType  = "key type"
	RefKey      = "key"
	RefLevel    = "level"
)

// InvalidReferenceError is returned by Builder.Build when a keymap component
// names something the keymap does not define. Assembly aborts on the first
// such error and no keymap is produced.
type InvalidReferenceError struct {
	Kind  string
	Name  string
	Where string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("%s: reference to undefined %s %q", e.Where, e.Kind, e.Name)
}

// NotFoundError is returned by name-based lookups for a name the keymap does
// not define.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s named %q", e.Kind, e.Name)
}

// InvalidIndexError is returned by index-based lookups for an index outside
// the keymap's range.
type InvalidIndexError struct {
	Kind  string
	Index int
	Num   int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range (have %d)", e.Kind, e.Index, e.Num)
}
