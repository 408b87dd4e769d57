package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CurrentVersion is the payload version written by Encode. Payloads
// without a version are read as this version.
const CurrentVersion = 1

// FileName is the name used for exported documents.
const FileName = "graph.json"

// validate is a singleton validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Payload is the portable graph document. Encode always writes
// deviceTypes, so an emptied catalogue survives a round trip; the key is
// only absent in documents from older writers.
type Payload struct {
	Version     *int         `json:"version,omitempty" yaml:"version,omitempty"`
	DeviceTypes []DeviceType `json:"deviceTypes" yaml:"deviceTypes" validate:"omitempty,dive"`
	Devices     []Device     `json:"devices" yaml:"devices" validate:"required,dive"`
	Connections []Connection `json:"connections" yaml:"connections" validate:"required,dive"`
}

// DeviceType is a catalogue entry.
type DeviceType struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
	Icon  string `json:"icon" yaml:"icon"`
}

// Device is a device record. Type and Description are written as null
// when empty.
type Device struct {
	Name                string               `json:"name" yaml:"name" validate:"required"`
	ID                  ExternalID           `json:"id,omitempty" yaml:"id,omitempty"`
	Type                *string              `json:"type" yaml:"type"`
	Description         *string              `json:"description" yaml:"description"`
	PosX                float64              `json:"pos_x" yaml:"pos_x"`
	PosY                float64              `json:"pos_y" yaml:"pos_y"`
	Ports               []Port               `json:"ports" yaml:"ports" validate:"dive"`
	InternalConnections []InternalConnection `json:"internal_connections" yaml:"internal_connections" validate:"dive"`
}

// Port is a port record. PortOrder drives display and serialization order.
type Port struct {
	Direction string `json:"direction" yaml:"direction" validate:"required,oneof=in out"`
	Name      string `json:"name" yaml:"name" validate:"required"`
	PortOrder int    `json:"port_order" yaml:"port_order"`
}

// InternalConnection routes an input port to an output port of the
// enclosing device.
type InternalConnection struct {
	InPort  string `json:"in_port" yaml:"in_port" validate:"required"`
	OutPort string `json:"out_port" yaml:"out_port" validate:"required"`
}

// Connection is an inter-device edge addressed by names.
type Connection struct {
	SourceDevice string `json:"source_device" yaml:"source_device" validate:"required"`
	SourcePort   string `json:"source_port" yaml:"source_port" validate:"required"`
	TargetDevice string `json:"target_device" yaml:"target_device" validate:"required"`
	TargetPort   string `json:"target_port" yaml:"target_port" validate:"required"`
}

// ExternalID is the free-form device identifier used by downstream code
// generation. Older documents stored it as a number, so JSON numbers are
// accepted and kept in their literal form.
type ExternalID string

// UnmarshalJSON accepts a string, a number or null.
func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ExternalID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id: expected string or number, got %s", data)
		}
		*id = ExternalID(n.String())
		return nil
	}
}

// check applies version and struct-tag validation.
func (p *Payload) check() error {
	if p.Version != nil && *p.Version != CurrentVersion {
		return fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, *p.Version, CurrentVersion)
	}
	if err := validate.Struct(p); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into a single ErrInvalid
// listing every offending field.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := strings.TrimPrefix(e.Namespace(), "Payload.")
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+": field is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: must be one of [%s], got %q", field, e.Param(), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
