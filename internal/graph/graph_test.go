package graph

import (
	"errors"
	"strings"
	"testing"
)

func validGraph() *Graph {
	return &Graph{
		DeviceTypes: []DeviceType{{Name: "noria"}},
		Devices: []Device{
			{
				Key:  "d1",
				Name: "N1",
				Type: "noria",
				Ports: []Port{
					{Key: "p1", Name: "Input", Direction: DirectionIn},
					{Key: "p2", Name: "Output", Direction: DirectionOut, Order: 1},
				},
				InternalConnections: []InternalConnection{{In: "p1", Out: "p2"}},
			},
			{
				Key:   "d2",
				Name:  "N2",
				Ports: []Port{{Key: "p3", Name: "Input", Direction: DirectionIn}},
			},
		},
		Connections: []Connection{{SourceDevice: "d1", SourcePort: "p2", TargetDevice: "d2", TargetPort: "p3"}},
	}
}

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *Graph)
		wantMsg string
	}{
		{"valid", func(*Graph) {}, ""},
		{"duplicate type", func(g *Graph) { g.DeviceTypes = append(g.DeviceTypes, DeviceType{Name: "noria"}) }, "duplicate device type"},
		{"empty type name", func(g *Graph) { g.DeviceTypes[0].Name = " " }, "device type with empty name"},
		{"duplicate device", func(g *Graph) { g.Devices[1].Name = "N1" }, `duplicate device "N1"`},
		{"duplicate port", func(g *Graph) { g.Devices[0].Ports[1].Name = "Input" }, "duplicate port"},
		{"separator in device name", func(g *Graph) { g.Devices[0].Name = "N1::Output --> N2" }, `device "N1::Output --> N2" contains a reserved separator`},
		{"separator in port name", func(g *Graph) { g.Devices[1].Ports[0].Name = "In::put" }, `port "In::put" on "N2" contains a reserved separator`},
		{"bad direction", func(g *Graph) { g.Devices[1].Ports[0].Direction = "up" }, "invalid direction"},
		{"reused key", func(g *Graph) { g.Devices[1].Ports[0].Key = "p1" }, "reuses key"},
		{"dangling connection", func(g *Graph) { g.Connections[0].TargetPort = "gone" }, "unknown port"},
		{"self loop", func(g *Graph) {
			g.Connections = append(g.Connections, Connection{SourceDevice: "d1", SourcePort: "p2", TargetDevice: "d1", TargetPort: "p1"})
		}, "loops on device"},
		{"duplicate connection", func(g *Graph) { g.Connections = append(g.Connections, g.Connections[0]) }, "duplicate connection"},
		{"route against direction", func(g *Graph) {
			g.Devices[0].InternalConnections[0] = InternalConnection{In: "p2", Out: "p1"}
		}, "runs against port direction"},
		{"duplicate route", func(g *Graph) {
			g.Devices[0].InternalConnections = append(g.Devices[0].InternalConnections, InternalConnection{In: "p1", Out: "p2"})
		}, "duplicate internal connection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGraph()
			tt.mutate(g)
			err := g.Validate()
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidGraph) {
				t.Fatalf("Validate() error = %v, want ErrInvalidGraph", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestDevice_ViewSortsPortsByOrder(t *testing.T) {
	d := Device{
		Name: "D",
		Ports: []Port{
			{Key: "b", Name: "B", Direction: DirectionOut, Order: 2},
			{Key: "a", Name: "A", Direction: DirectionIn, Order: 0},
			{Key: "c", Name: "C", Direction: DirectionIn, Order: 2},
		},
		InternalConnections: []InternalConnection{{In: "a", Out: "b"}},
	}
	v := d.View()

	var names []string
	for _, p := range v.Ports {
		names = append(names, p.Name)
	}
	if got := strings.Join(names, ","); got != "A,B,C" {
		t.Errorf("port order = %s, want A,B,C", got)
	}
	if len(v.InternalConnections) != 1 || v.InternalConnections[0] != (InternalConnectionView{InPort: "A", OutPort: "B"}) {
		t.Errorf("internal connections = %+v", v.InternalConnections)
	}
	if d.Ports[0].Name != "B" {
		t.Error("View reordered the device's own ports")
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"in", DirectionIn, false},
		{" OUT ", DirectionOut, false},
		{"both", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDirection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidDirection) {
			t.Errorf("ParseDirection(%q) error = %v, want ErrInvalidDirection", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConnectionID(t *testing.T) {
	if got := ConnectionID("Valve", "Input", "Valve 2", "Output"); got != "Valve::Input --> Valve 2::Output" {
		t.Errorf("ConnectionID() = %q", got)
	}
}

func TestDefaultCatalog_FreshSlice(t *testing.T) {
	a := DefaultCatalog()
	a[0].Label = "changed"
	if DefaultCatalog()[0].Label == "changed" {
		t.Error("DefaultCatalog returned a shared slice")
	}
	g := &Graph{DeviceTypes: DefaultCatalog()}
	if err := g.Validate(); err != nil {
		t.Errorf("default catalogue does not validate: %v", err)
	}
}
