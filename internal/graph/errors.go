package graph

import (
	"errors"
	"fmt"
)

// Domain errors for the graph package.
//
// Validation failures are returned wrapped in a *ValidationError; the
// sentinels below can be matched with errors.Is either way:
//
//	if errors.Is(err, graph.ErrNameExists) {
//	    // another device already uses that name
//	}
var (
	// ErrNameRequired is returned when a device type is created without a name.
	ErrNameRequired = errors.New("graph: name required")

	// ErrDuplicateName is returned when a device type name is already in the catalogue.
	ErrDuplicateName = errors.New("graph: duplicate name")

	// ErrEmptyName is returned when a rename targets an empty (or blank) name.
	ErrEmptyName = errors.New("graph: empty name")

	// ErrNameExists is returned when a rename collides with a sibling's name.
	ErrNameExists = errors.New("graph: name exists")

	// ErrReservedName is returned when a device or port name contains one of
	// the separators used to build connection IDs ("::" or " --> ").
	ErrReservedName = errors.New("graph: name contains a reserved separator")

	// ErrAlreadyExists is returned when an internal connection pair is added twice.
	ErrAlreadyExists = errors.New("graph: already exists")

	// ErrDirectionMismatch is returned when an internal connection does not
	// run from an input port to an output port.
	ErrDirectionMismatch = errors.New("graph: port direction mismatch")

	// ErrDeviceNotFound is returned when a device name does not resolve.
	ErrDeviceNotFound = errors.New("graph: device not found")

	// ErrPortNotFound is returned when a port name does not resolve on its device.
	ErrPortNotFound = errors.New("graph: port not found")

	// ErrInvalidDirection is returned when a port direction is neither "in" nor "out".
	ErrInvalidDirection = errors.New("graph: invalid direction")

	// ErrInvalidGraph is returned by Validate and Replace when a graph breaks
	// one of the structural invariants.
	ErrInvalidGraph = errors.New("graph: invalid graph")
)

// ValidationError describes a rejected named-entity operation.
// The store is always unchanged when one is returned.
type ValidationError struct {
	Op   string // operation that failed, e.g. "rename_device"
	Kind string // entity kind: "device_type", "device", "port", "internal_connection"
	Name string // offending name as supplied by the caller
	Err  error  // one of the sentinel errors above
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s %q: %v", e.Op, e.Kind, e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err refers to a missing device or port.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDeviceNotFound) || errors.Is(err, ErrPortNotFound)
}

func invalid(op, kind, name string, err error) error {
	return &ValidationError{Op: op, Kind: kind, Name: name, Err: err}
}
