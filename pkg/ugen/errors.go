package ugen

import "fmt"

// ParamError is returned by Operate methods when a named slot can't satisfy
// the request: the name doesn't exist on this unit, the value isn't the
// kind the slot expects, or a Node-valued slot can't be rendered as text.
type ParamError struct {
	Unit string
	Name string
	Kind ParamErrorKind
}

// ParamErrorKind enumerates the ways a parameter access can fail.
type ParamErrorKind int

const (
	UnknownParameter ParamErrorKind = iota
	WrongType
	CannotRepresentAsString
)

func (e *ParamError) Error() string {
	switch e.Kind {
	case UnknownParameter:
		return fmt.Sprintf("%s: no such parameter %q", e.Unit, e.Name)
	case WrongType:
		return fmt.Sprintf("%s.%s: wrong value type", e.Unit, e.Name)
	case CannotRepresentAsString:
		return fmt.Sprintf("%s.%s: cannot represent as string", e.Unit, e.Name)
	default:
		return fmt.Sprintf("%s.%s: parameter error", e.Unit, e.Name)
	}
}

func errUnknown(unit, name string) error {
	return &ParamError{Unit: unit, Name: name, Kind: UnknownParameter}
}

func errWrongType(unit, name string) error {
	return &ParamError{Unit: unit, Name: name, Kind: WrongType}
}

func errNotString(unit, name string) error {
	return &ParamError{Unit: unit, Name: name, Kind: CannotRepresentAsString}
}

// ErrUnknownParameter reports whether err is an UnknownParameter ParamError.
func ErrUnknownParameter(err error) bool {
	pe, ok := err.(*ParamError)
	return ok && pe.Kind == UnknownParameter
}

// Unknown, BadType and NotString are the constructors pkg/units calls from
// Get/Set/GetStr/SetStr implementations.
func Unknown(unit, name string) error  { return errUnknown(unit, name) }
func BadType(unit, name string) error  { return errWrongType(unit, name) }
func NotString(unit, name string) error { return errNotString(unit, name) }
