package graph

import (
	"fmt"
	"strings"
)

// Direction is the flow direction of a port.
type Direction string

// Port directions.
const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// ParseDirection converts a user-supplied string into a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}

// baseName is the stem used when allocating names for new ports.
func (d Direction) baseName() string {
	if d == DirectionIn {
		return "Input"
	}
	return "Output"
}

// DeviceType is a reusable category of devices (e.g. "noria").
type DeviceType struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
	Icon  string `json:"icon" yaml:"icon"`
}

// DeviceTypePatch carries the optional fields of UpdateDeviceType.
// Nil fields are left untouched.
type DeviceTypePatch struct {
	Label *string `json:"label,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// Position is a layout coordinate. It has no structural meaning.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Port is a named, directional attachment point owned by one device.
type Port struct {
	Key       string    `json:"-" yaml:"-"`
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Order     int       `json:"order"`
}

// InternalConnection routes an input port to an output port on the same
// device. Both fields hold port keys.
type InternalConnection struct {
	In  string
	Out string
}

// Device is a node of the graph.
//
// Type holds the name of a DeviceType; an empty string means no type.
// The referenced type is not required to exist in the catalogue.
type Device struct {
	Key                 string
	Name                string
	ExternalID          string
	Type                string
	Description         string
	Position            Position
	Ports               []Port
	InternalConnections []InternalConnection
}

// DevicePatch carries the optional fields of UpdateNodeData.
// A pointer to an empty Type clears the device's type.
type DevicePatch struct {
	Description *string   `json:"description,omitempty"`
	Type        *string   `json:"type,omitempty"`
	ExternalID  *string   `json:"id,omitempty"`
	Position    *Position `json:"position,omitempty"`
}

func (p DevicePatch) positionOnly() bool {
	return p.Position != nil && p.Description == nil && p.Type == nil && p.ExternalID == nil
}

// Connection is a directed edge between ports of two different devices.
// All fields hold keys, not names.
type Connection struct {
	SourceDevice string
	SourcePort   string
	TargetDevice string
	TargetPort   string
}

// ConnectionID derives the externally visible identifier of a connection
// from the current endpoint names. It is unambiguous because device and
// port names never contain "::" or " --> ".
func ConnectionID(sourceDevice, sourcePort, targetDevice, targetPort string) string {
	return sourceDevice + portSeparator + sourcePort + connectionSeparator + targetDevice + portSeparator + targetPort
}

// Stats summarises the size of a graph.
type Stats struct {
	DeviceTypes         int `json:"device_types"`
	Devices             int `json:"devices"`
	Ports               int `json:"ports"`
	InternalConnections int `json:"internal_connections"`
	Connections         int `json:"connections"`
}

// InternalConnectionView is an internal connection expressed with port names.
type InternalConnectionView struct {
	InPort  string `json:"in_port"`
	OutPort string `json:"out_port"`
}

// DeviceView is a name-keyed, read-only copy of a device.
// Ports are sorted by Order.
type DeviceView struct {
	Name                string                   `json:"name"`
	ExternalID          string                   `json:"id,omitempty"`
	Type                string                   `json:"type,omitempty"`
	Description         string                   `json:"description,omitempty"`
	Position            Position                 `json:"position"`
	Ports               []Port                   `json:"ports"`
	InternalConnections []InternalConnectionView `json:"internal_connections"`
}

// ConnectionView is a connection expressed with names plus its derived ID.
type ConnectionView struct {
	ID           string `json:"id"`
	SourceDevice string `json:"source_device"`
	SourcePort   string `json:"source_port"`
	TargetDevice string `json:"target_device"`
	TargetPort   string `json:"target_port"`
}

// NodeView is what a rendering layer draws for one device. DeviceTypes is
// the editor's shared catalogue view: the same slice for every node,
// replaced wholesale whenever the catalogue changes. Callers must not
// modify it.
type NodeView struct {
	DeviceView
	Selected    bool         `json:"selected"`
	DeviceTypes []DeviceType `json:"deviceTypes"`
}

// NodeChangeType enumerates the high-frequency node changes.
type NodeChangeType string

// Node change kinds.
const (
	NodeChangePosition NodeChangeType = "position"
	NodeChangeSelect   NodeChangeType = "select"
)

// NodeChange is one entry of a batch produced by the canvas while the user
// drags or clicks nodes.
type NodeChange struct {
	Type     NodeChangeType `json:"type"`
	Name     string         `json:"name"`
	Position *Position      `json:"position,omitempty"`
	Selected bool           `json:"selected,omitempty"`
}

// EdgeChangeType enumerates the batched visual edge changes.
type EdgeChangeType string

// Edge change kinds.
const (
	EdgeChangeRemove EdgeChangeType = "remove"
	EdgeChangeSelect EdgeChangeType = "select"
)

// EdgeChange is one entry of a batch produced by the canvas. ID is a
// derived connection identifier.
type EdgeChange struct {
	Type EdgeChangeType `json:"type"`
	ID   string         `json:"id"`
}
