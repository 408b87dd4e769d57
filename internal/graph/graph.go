package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Graph is the aggregate unit of persistence and document exchange: the
// device-type catalogue, the devices with their ports and internal
// connections, and the inter-device connections.
//
// A Graph value is plain data. The Editor owns the live instance; every
// Graph handed out by the Editor is a deep copy.
type Graph struct {
	DeviceTypes []DeviceType
	Devices     []Device
	Connections []Connection
}

// NewKey returns a fresh surrogate key for a device or port.
func NewKey() string {
	return uuid.NewString()
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		DeviceTypes: append([]DeviceType(nil), g.DeviceTypes...),
		Devices:     make([]Device, len(g.Devices)),
		Connections: append([]Connection(nil), g.Connections...),
	}
	for i, d := range g.Devices {
		d.Ports = append([]Port(nil), d.Ports...)
		d.InternalConnections = append([]InternalConnection(nil), d.InternalConnections...)
		out.Devices[i] = d
	}
	return out
}

// Stats counts the entities of g.
func (g *Graph) Stats() Stats {
	s := Stats{
		DeviceTypes: len(g.DeviceTypes),
		Devices:     len(g.Devices),
		Connections: len(g.Connections),
	}
	for i := range g.Devices {
		s.Ports += len(g.Devices[i].Ports)
		s.InternalConnections += len(g.Devices[i].InternalConnections)
	}
	return s
}

func (g *Graph) typeIndex(name string) int {
	for i := range g.DeviceTypes {
		if g.DeviceTypes[i].Name == name {
			return i
		}
	}
	return -1
}

func (g *Graph) deviceIndex(name string) int {
	for i := range g.Devices {
		if g.Devices[i].Name == name {
			return i
		}
	}
	return -1
}

func (g *Graph) device(name string) *Device {
	if i := g.deviceIndex(name); i >= 0 {
		return &g.Devices[i]
	}
	return nil
}

func (g *Graph) deviceByKey(key string) *Device {
	for i := range g.Devices {
		if g.Devices[i].Key == key {
			return &g.Devices[i]
		}
	}
	return nil
}

func (g *Graph) hasConnection(c Connection) bool {
	for _, existing := range g.Connections {
		if existing == c {
			return true
		}
	}
	return false
}

func (g *Graph) connectionIndex(id string) int {
	for i, c := range g.Connections {
		if v, ok := g.Resolve(c); ok && v.ID == id {
			return i
		}
	}
	return -1
}

func (d *Device) portIndex(name string) int {
	for i := range d.Ports {
		if d.Ports[i].Name == name {
			return i
		}
	}
	return -1
}

func (d *Device) port(name string) *Port {
	if i := d.portIndex(name); i >= 0 {
		return &d.Ports[i]
	}
	return nil
}

func (d *Device) portByKey(key string) *Port {
	for i := range d.Ports {
		if d.Ports[i].Key == key {
			return &d.Ports[i]
		}
	}
	return nil
}

func (d *Device) hasInternal(ic InternalConnection) bool {
	for _, existing := range d.InternalConnections {
		if existing == ic {
			return true
		}
	}
	return false
}

// View returns the name-keyed view of d. Ports are sorted by Order;
// ties keep insertion order. Keys are not exposed.
func (d *Device) View() DeviceView {
	v := DeviceView{
		Name:                d.Name,
		ExternalID:          d.ExternalID,
		Type:                d.Type,
		Description:         d.Description,
		Position:            d.Position,
		Ports:               append([]Port(nil), d.Ports...),
		InternalConnections: make([]InternalConnectionView, 0, len(d.InternalConnections)),
	}
	for i := range v.Ports {
		v.Ports[i].Key = ""
	}
	sort.SliceStable(v.Ports, func(i, j int) bool { return v.Ports[i].Order < v.Ports[j].Order })
	for _, ic := range d.InternalConnections {
		in, out := d.portByKey(ic.In), d.portByKey(ic.Out)
		if in == nil || out == nil {
			continue
		}
		v.InternalConnections = append(v.InternalConnections, InternalConnectionView{InPort: in.Name, OutPort: out.Name})
	}
	return v
}

// Resolve translates a key-based connection into its name-keyed view.
// It reports false if any endpoint no longer resolves.
func (g *Graph) Resolve(c Connection) (ConnectionView, bool) {
	src, tgt := g.deviceByKey(c.SourceDevice), g.deviceByKey(c.TargetDevice)
	if src == nil || tgt == nil {
		return ConnectionView{}, false
	}
	sp, tp := src.portByKey(c.SourcePort), tgt.portByKey(c.TargetPort)
	if sp == nil || tp == nil {
		return ConnectionView{}, false
	}
	return ConnectionView{
		ID:           ConnectionID(src.Name, sp.Name, tgt.Name, tp.Name),
		SourceDevice: src.Name,
		SourcePort:   sp.Name,
		TargetDevice: tgt.Name,
		TargetPort:   tp.Name,
	}, true
}

// DeviceViews returns the name-keyed views of all devices in insertion order.
func (g *Graph) DeviceViews() []DeviceView {
	out := make([]DeviceView, 0, len(g.Devices))
	for i := range g.Devices {
		out = append(out, g.Devices[i].View())
	}
	return out
}

// ConnectionViews returns the name-keyed views of all connections in
// insertion order.
func (g *Graph) ConnectionViews() []ConnectionView {
	out := make([]ConnectionView, 0, len(g.Connections))
	for _, c := range g.Connections {
		if v, ok := g.Resolve(c); ok {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks every structural invariant of g and reports all
// violations at once, wrapped in ErrInvalidGraph.
func (g *Graph) Validate() error {
	var problems []string

	typeNames := make(map[string]struct{}, len(g.DeviceTypes))
	for _, dt := range g.DeviceTypes {
		if strings.TrimSpace(dt.Name) == "" {
			problems = append(problems, "device type with empty name")
			continue
		}
		if _, dup := typeNames[dt.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate device type %q", dt.Name))
		}
		typeNames[dt.Name] = struct{}{}
	}

	deviceNames := make(map[string]struct{}, len(g.Devices))
	keys := make(map[string]struct{})
	for i := range g.Devices {
		problems = append(problems, validateDevice(&g.Devices[i], deviceNames, keys)...)
	}

	seen := make(map[Connection]struct{}, len(g.Connections))
	for _, c := range g.Connections {
		src, tgt := g.deviceByKey(c.SourceDevice), g.deviceByKey(c.TargetDevice)
		switch {
		case src == nil || tgt == nil:
			problems = append(problems, "connection references unknown device")
			continue
		case src.portByKey(c.SourcePort) == nil || tgt.portByKey(c.TargetPort) == nil:
			problems = append(problems, fmt.Sprintf("connection %s -> %s references unknown port", src.Name, tgt.Name))
			continue
		case c.SourceDevice == c.TargetDevice:
			problems = append(problems, fmt.Sprintf("connection loops on device %q", src.Name))
		}
		if _, dup := seen[c]; dup {
			v, _ := g.Resolve(c)
			problems = append(problems, fmt.Sprintf("duplicate connection %q", v.ID))
		}
		seen[c] = struct{}{}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGraph, strings.Join(problems, "; "))
	}
	return nil
}

func validateDevice(d *Device, names, keys map[string]struct{}) []string {
	var problems []string
	switch {
	case strings.TrimSpace(d.Name) == "":
		problems = append(problems, "device with empty name")
	case reservedName(d.Name):
		problems = append(problems, fmt.Sprintf("device %q contains a reserved separator", d.Name))
	default:
		if _, dup := names[d.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate device %q", d.Name))
		}
		names[d.Name] = struct{}{}
	}
	if d.Key == "" {
		problems = append(problems, fmt.Sprintf("device %q has no key", d.Name))
	} else if _, dup := keys[d.Key]; dup {
		problems = append(problems, fmt.Sprintf("device %q reuses key %s", d.Name, d.Key))
	}
	keys[d.Key] = struct{}{}

	portNames := make(map[string]struct{}, len(d.Ports))
	for _, p := range d.Ports {
		if strings.TrimSpace(p.Name) == "" {
			problems = append(problems, fmt.Sprintf("device %q has a port with empty name", d.Name))
		} else if reservedName(p.Name) {
			problems = append(problems, fmt.Sprintf("port %q on %q contains a reserved separator", p.Name, d.Name))
		} else if _, dup := portNames[p.Name]; dup {
			problems = append(problems, fmt.Sprintf("device %q has duplicate port %q", d.Name, p.Name))
		}
		portNames[p.Name] = struct{}{}
		if !p.Direction.Valid() {
			problems = append(problems, fmt.Sprintf("port %q on %q has invalid direction %q", p.Name, d.Name, p.Direction))
		}
		if p.Key == "" {
			problems = append(problems, fmt.Sprintf("port %q on %q has no key", p.Name, d.Name))
		} else if _, dup := keys[p.Key]; dup {
			problems = append(problems, fmt.Sprintf("port %q on %q reuses key %s", p.Name, d.Name, p.Key))
		}
		keys[p.Key] = struct{}{}
	}

	pairs := make(map[InternalConnection]struct{}, len(d.InternalConnections))
	for _, ic := range d.InternalConnections {
		in, out := d.portByKey(ic.In), d.portByKey(ic.Out)
		if in == nil || out == nil {
			problems = append(problems, fmt.Sprintf("device %q has an internal connection to an unknown port", d.Name))
			continue
		}
		if in.Direction != DirectionIn || out.Direction != DirectionOut {
			problems = append(problems, fmt.Sprintf("internal connection %s -> %s on %q runs against port direction", in.Name, out.Name, d.Name))
		}
		if _, dup := pairs[ic]; dup {
			problems = append(problems, fmt.Sprintf("device %q has duplicate internal connection %s -> %s", d.Name, in.Name, out.Name))
		}
		pairs[ic] = struct{}{}
	}
	return problems
}
