package document

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/micom7/graph/internal/graph"
)

// Importer reads a payload from a wire format.
type Importer interface {
	Parse(r io.Reader) (*Payload, error)
	Format() string
}

// Exporter writes a payload in a wire format.
type Exporter interface {
	Export(p *Payload, w io.Writer) error
	Format() string
}

// Codec is a format that can be both read and written.
type Codec interface {
	Importer
	Exporter
	ContentType() string
	Extension() string
}

// ForFormat returns the codec registered for name. An empty name selects JSON.
func ForFormat(name string) (Codec, error) {
	switch name {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Encode converts g into its name-keyed payload. Ports are written in
// display order and connections in insertion order.
func Encode(g *graph.Graph) *Payload {
	version := CurrentVersion
	p := &Payload{
		Version:     &version,
		DeviceTypes: make([]DeviceType, 0, len(g.DeviceTypes)),
		Devices:     make([]Device, 0, len(g.Devices)),
		Connections: make([]Connection, 0, len(g.Connections)),
	}
	for _, dt := range g.DeviceTypes {
		p.DeviceTypes = append(p.DeviceTypes, DeviceType(dt))
	}
	for _, v := range g.DeviceViews() {
		d := Device{
			Name:                v.Name,
			ID:                  ExternalID(v.ExternalID),
			Type:                nullable(v.Type),
			Description:         nullable(v.Description),
			PosX:                v.Position.X,
			PosY:                v.Position.Y,
			Ports:               make([]Port, 0, len(v.Ports)),
			InternalConnections: make([]InternalConnection, 0, len(v.InternalConnections)),
		}
		for _, port := range v.Ports {
			d.Ports = append(d.Ports, Port{Direction: string(port.Direction), Name: port.Name, PortOrder: port.Order})
		}
		for _, ic := range v.InternalConnections {
			d.InternalConnections = append(d.InternalConnections, InternalConnection(ic))
		}
		p.Devices = append(p.Devices, d)
	}
	for _, c := range g.ConnectionViews() {
		p.Connections = append(p.Connections, Connection{
			SourceDevice: c.SourceDevice,
			SourcePort:   c.SourcePort,
			TargetDevice: c.TargetDevice,
			TargetPort:   c.TargetPort,
		})
	}
	return p
}

// Decode builds a graph from p, assigning fresh surrogate keys. Ports are
// ordered by port_order (ties keep document order). The result satisfies
// graph.Validate or an error is returned.
//
// A payload without deviceTypes yields a graph with a nil catalogue, so
// callers can tell "absent" from "empty".
func Decode(p *Payload) (*graph.Graph, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: empty document", ErrParse)
	}
	if err := p.check(); err != nil {
		return nil, err
	}

	g := &graph.Graph{
		Devices:     make([]graph.Device, 0, len(p.Devices)),
		Connections: make([]graph.Connection, 0, len(p.Connections)),
	}
	if p.DeviceTypes != nil {
		g.DeviceTypes = make([]graph.DeviceType, 0, len(p.DeviceTypes))
		for _, dt := range p.DeviceTypes {
			g.DeviceTypes = append(g.DeviceTypes, graph.DeviceType(dt))
		}
	}

	// name -> key lookups for resolving references
	deviceKeys := make(map[string]string, len(p.Devices))
	portKeys := make(map[string]map[string]string, len(p.Devices))

	for _, rec := range p.Devices {
		d, ports, err := decodeDevice(rec)
		if err != nil {
			return nil, err
		}
		if _, dup := deviceKeys[d.Name]; !dup {
			deviceKeys[d.Name] = d.Key
			portKeys[d.Name] = ports
		}
		g.Devices = append(g.Devices, d)
	}

	for i, rec := range p.Connections {
		var (
			c  graph.Connection
			ok bool
		)
		if c.SourceDevice, ok = deviceKeys[rec.SourceDevice]; !ok {
			return nil, fmt.Errorf("%w: connection %d: unknown source device %q", ErrInvalid, i, rec.SourceDevice)
		}
		if c.TargetDevice, ok = deviceKeys[rec.TargetDevice]; !ok {
			return nil, fmt.Errorf("%w: connection %d: unknown target device %q", ErrInvalid, i, rec.TargetDevice)
		}
		if c.SourcePort, ok = portKeys[rec.SourceDevice][rec.SourcePort]; !ok {
			return nil, fmt.Errorf("%w: connection %d: unknown port %q on %q", ErrInvalid, i, rec.SourcePort, rec.SourceDevice)
		}
		if c.TargetPort, ok = portKeys[rec.TargetDevice][rec.TargetPort]; !ok {
			return nil, fmt.Errorf("%w: connection %d: unknown port %q on %q", ErrInvalid, i, rec.TargetPort, rec.TargetDevice)
		}
		g.Connections = append(g.Connections, c)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return g, nil
}

func decodeDevice(rec Device) (graph.Device, map[string]string, error) {
	d := graph.Device{
		Key:         graph.NewKey(),
		Name:        rec.Name,
		ExternalID:  string(rec.ID),
		Type:        deref(rec.Type),
		Description: deref(rec.Description),
		Position:    graph.Position{X: rec.PosX, Y: rec.PosY},
	}

	ports := make([]Port, len(rec.Ports))
	copy(ports, rec.Ports)
	sort.SliceStable(ports, func(i, j int) bool { return ports[i].PortOrder < ports[j].PortOrder })

	keys := make(map[string]string, len(ports))
	for _, rp := range ports {
		key := graph.NewKey()
		if _, dup := keys[rp.Name]; !dup {
			keys[rp.Name] = key
		}
		d.Ports = append(d.Ports, graph.Port{
			Key:       key,
			Name:      rp.Name,
			Direction: graph.Direction(rp.Direction),
			Order:     rp.PortOrder,
		})
	}

	for _, ric := range rec.InternalConnections {
		in, okIn := keys[ric.InPort]
		out, okOut := keys[ric.OutPort]
		if !okIn || !okOut {
			return graph.Device{}, nil, fmt.Errorf("%w: device %q: internal connection %s -> %s references an unknown port",
				ErrInvalid, rec.Name, ric.InPort, ric.OutPort)
		}
		d.InternalConnections = append(d.InternalConnections, graph.InternalConnection{In: in, Out: out})
	}
	return d, keys, nil
}

// Marshal encodes g as indented JSON, the format of export files and the
// persistence slot.
func Marshal(g *graph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewJSONCodec().Export(Encode(g), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a JSON payload into a graph.
func Unmarshal(data []byte) (*graph.Graph, error) {
	return Read(bytes.NewReader(data), NewJSONCodec())
}

// Read parses r with imp and decodes the result.
func Read(r io.Reader, imp Importer) (*graph.Graph, error) {
	p, err := imp.Parse(r)
	if err != nil {
		return nil, err
	}
	return Decode(p)
}

// Write encodes g and writes it with exp.
func Write(g *graph.Graph, w io.Writer, exp Exporter) error {
	return exp.Export(Encode(g), w)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
