package graph

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

// recorder collects commit events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) last(t *testing.T) Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		t.Fatal("no events recorded")
	}
	return r.events[len(r.events)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newTestEditor(t *testing.T, opts ...Option) (*Editor, *recorder) {
	t.Helper()
	ed := NewEditor(opts...)
	rec := &recorder{}
	ed.Subscribe(rec.observe)
	return ed, rec
}

// wired builds three devices A, B and C with A.out -> B.in and B.out -> C.in.
func wired(t *testing.T) *Editor {
	t.Helper()
	ed := NewEditor()
	for _, name := range []string{"A", "B", "C"} {
		dev := ed.AddDevice("")
		if err := ed.RenameDevice(dev, name); err != nil {
			t.Fatalf("RenameDevice(%q, %q) error = %v", dev, name, err)
		}
		ed.AddPort(name, DirectionIn)
		ed.AddPort(name, DirectionOut)
	}
	if _, ok := ed.Connect("A", "Output", "B", "Input"); !ok {
		t.Fatal("Connect A -> B rejected")
	}
	if _, ok := ed.Connect("B", "Output", "C", "Input"); !ok {
		t.Fatal("Connect B -> C rejected")
	}
	return ed
}

func TestEditor_ValveScenario(t *testing.T) {
	ed := NewEditor()

	if err := ed.AddDeviceType(DeviceType{Name: "valve", Label: "Valve", Color: "#4A90D9", Icon: "⚙"}); err != nil {
		t.Fatalf("AddDeviceType() error = %v", err)
	}
	if got := ed.AddDevice("valve"); got != "Valve" {
		t.Fatalf("first AddDevice() = %q, want %q", got, "Valve")
	}
	if got := ed.AddDevice("valve"); got != "Valve 2" {
		t.Fatalf("second AddDevice() = %q, want %q", got, "Valve 2")
	}
	if got, ok := ed.AddPort("Valve", DirectionIn); !ok || got != "Input" {
		t.Fatalf("AddPort(Valve, in) = %q, %v; want Input, true", got, ok)
	}
	if got, ok := ed.AddPort("Valve 2", DirectionOut); !ok || got != "Output" {
		t.Fatalf("AddPort(Valve 2, out) = %q, %v; want Output, true", got, ok)
	}

	id, ok := ed.Connect("Valve", "Input", "Valve 2", "Output")
	if !ok {
		t.Fatal("Connect() rejected, want accepted")
	}
	const wantID = "Valve::Input --> Valve 2::Output"
	if id != wantID {
		t.Errorf("Connect() id = %q, want %q", id, wantID)
	}

	conns := ed.Connections()
	if len(conns) != 1 || conns[0].ID != wantID {
		t.Errorf("Connections() = %+v, want one connection %q", conns, wantID)
	}
}

func TestEditor_AddDeviceType(t *testing.T) {
	ed := NewEditor(WithCatalog(DefaultCatalog()))

	tests := []struct {
		name    string
		dt      DeviceType
		wantErr error
	}{
		{"new type", DeviceType{Name: "valve", Label: "Valve"}, nil},
		{"name is trimmed", DeviceType{Name: "  scale  ", Label: "Scale"}, nil},
		{"empty name", DeviceType{Name: ""}, ErrNameRequired},
		{"blank name", DeviceType{Name: "   "}, ErrNameRequired},
		{"duplicate", DeviceType{Name: "noria"}, ErrDuplicateName},
		{"duplicate after trim", DeviceType{Name: " valve"}, ErrDuplicateName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ed.DeviceTypes()
			err := ed.AddDeviceType(tt.dt)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("AddDeviceType() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddDeviceType() error = %v, want %v", err, tt.wantErr)
			}
			if !IsValidation(err) {
				t.Errorf("AddDeviceType() error %T is not a *ValidationError", err)
			}
			if got := ed.DeviceTypes(); !reflect.DeepEqual(got, before) {
				t.Errorf("catalogue changed on rejected add: %v", got)
			}
		})
	}

	if _, ok := ed.DeviceType("scale"); !ok {
		t.Error(`DeviceType("scale") not found after trimmed add`)
	}
}

func TestEditor_CatalogViewRefreshedWholesale(t *testing.T) {
	ed := NewEditor(WithCatalog(DefaultCatalog()))
	ed.AddDevice("noria")
	ed.AddDevice("bunker")

	nodes := ed.Nodes()
	if len(nodes) != 2 {
		t.Fatalf("Nodes() len = %d, want 2", len(nodes))
	}
	if &nodes[0].DeviceTypes[0] != &nodes[1].DeviceTypes[0] {
		t.Error("nodes do not share the catalogue view")
	}

	if err := ed.AddDeviceType(DeviceType{Name: "valve"}); err != nil {
		t.Fatalf("AddDeviceType() error = %v", err)
	}
	after := ed.Nodes()
	if len(after[0].DeviceTypes) != len(DefaultCatalog())+1 {
		t.Errorf("refreshed view has %d types, want %d", len(after[0].DeviceTypes), len(DefaultCatalog())+1)
	}
	if len(nodes[0].DeviceTypes) != len(DefaultCatalog()) {
		t.Error("earlier view was modified in place")
	}
}

func TestEditor_UpdateDeviceType(t *testing.T) {
	ed, rec := newTestEditor(t, WithCatalog(DefaultCatalog()))

	label := "Bucket elevator"
	ed.UpdateDeviceType("noria", DeviceTypePatch{Label: &label})

	dt, _ := ed.DeviceType("noria")
	if dt.Label != label || dt.Color != "#E67E22" {
		t.Errorf("DeviceType(noria) = %+v, want label updated and colour kept", dt)
	}
	if ev := rec.last(t); ev.Op != OpUpdateDeviceType || !ev.ShouldPersist() {
		t.Errorf("last event = %+v, want persisting %s", ev, OpUpdateDeviceType)
	}

	n := rec.count()
	ed.UpdateDeviceType("missing", DeviceTypePatch{Label: &label})
	if rec.count() != n {
		t.Error("update of unknown type produced an event")
	}
}

func TestEditor_DeleteDeviceTypeKeepsDevices(t *testing.T) {
	ed := NewEditor(WithCatalog(DefaultCatalog()))
	name := ed.AddDevice("sylos")
	other := ed.AddDevice("bunker")

	ed.DeleteDeviceType("sylos")

	if _, ok := ed.DeviceType("sylos"); ok {
		t.Error("type still in catalogue after delete")
	}
	d, ok := ed.Device(name)
	if !ok {
		t.Fatal("device deleted together with its type")
	}
	if d.Type != "" {
		t.Errorf("device type = %q, want cleared", d.Type)
	}
	if d, _ := ed.Device(other); d.Type != "bunker" {
		t.Errorf("unrelated device type = %q, want bunker", d.Type)
	}
}

func TestEditor_AddDevice(t *testing.T) {
	ed := NewEditor(WithCatalog(DefaultCatalog()))

	tests := []struct {
		typeName string
		wantName string
		wantType string
	}{
		{"noria", "Норія", "noria"},
		{"noria", "Норія 2", "noria"},
		{"unknown", "unknown", "unknown"},
		{"", "New device", ""},
		{"", "New device 2", ""},
	}

	for i, tt := range tests {
		got := ed.AddDevice(tt.typeName)
		if got != tt.wantName {
			t.Errorf("AddDevice(%q) #%d = %q, want %q", tt.typeName, i, got, tt.wantName)
			continue
		}
		d, _ := ed.Device(got)
		if d.Type != tt.wantType {
			t.Errorf("device %q type = %q, want %q", got, d.Type, tt.wantType)
		}
		want := float64(layoutOrigin + i*layoutStep)
		if d.Position != (Position{X: want, Y: want}) {
			t.Errorf("device %q position = %+v, want (%v, %v)", got, d.Position, want, want)
		}
		if len(d.Ports) != 0 || len(d.InternalConnections) != 0 {
			t.Errorf("device %q not created empty: %+v", got, d)
		}
	}
}

func TestEditor_AddDeviceWithReservedLabel(t *testing.T) {
	ed := NewEditor(WithCatalog([]DeviceType{
		{Name: "a::b", Label: ""},
		{Name: "pipe", Label: "In --> Out"},
	}))

	for _, typeName := range []string{"a::b", "pipe"} {
		name := ed.AddDevice(typeName)
		if reservedName(name) {
			t.Errorf("AddDevice(%q) = %q, contains a reserved separator", typeName, name)
		}
	}
	if names := ed.Devices(); len(names) != 2 || names[0].Name != "New device" || names[1].Name != "New device 2" {
		t.Errorf("devices = %+v, want the default name", names)
	}
}

func TestEditor_RenameDevice(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{"ok", "A", "A2", nil},
		{"trimmed", "A", "  A2 ", nil},
		{"unchanged", "A", "A", nil},
		{"empty", "A", "", ErrEmptyName},
		{"blank", "A", "  ", ErrEmptyName},
		{"taken", "A", "B", ErrNameExists},
		{"port separator", "A", "A::Output", ErrReservedName},
		{"connection separator", "A", "A --> B", ErrReservedName},
		{"unknown device", "Z", "Y", ErrDeviceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := wired(t)
			before := ed.Snapshot()

			err := ed.RenameDevice(tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RenameDevice(%q, %q) error = %v, want %v", tt.from, tt.to, err, tt.wantErr)
			}
			if err != nil {
				if !reflect.DeepEqual(ed.Snapshot(), before) {
					t.Error("graph changed on rejected rename")
				}
				return
			}
		})
	}
}

func TestEditor_RenameDeviceCascadesToConnections(t *testing.T) {
	ed := wired(t)

	if err := ed.RenameDevice("A", "A2"); err != nil {
		t.Fatalf("RenameDevice() error = %v", err)
	}

	var found bool
	for _, c := range ed.Connections() {
		if c.SourceDevice == "A" || c.TargetDevice == "A" {
			t.Errorf("connection still references A: %+v", c)
		}
		if c.SourceDevice == "A2" {
			found = true
			if c.ID != "A2::Output --> B::Input" {
				t.Errorf("connection id = %q, want recomputed", c.ID)
			}
		}
	}
	if !found {
		t.Error("no connection with source_device A2")
	}
}

func TestEditor_DeleteNodeCascades(t *testing.T) {
	ed := wired(t)
	a, _ := ed.Device("A")
	c, _ := ed.Device("C")
	ed.Select("B")

	ed.DeleteNode("B")

	if got := ed.Connections(); len(got) != 0 {
		t.Errorf("Connections() = %+v, want none", got)
	}
	if _, ok := ed.Device("B"); ok {
		t.Error("B still present")
	}
	if got, _ := ed.Device("A"); !reflect.DeepEqual(got, a) {
		t.Errorf("A changed: %+v, want %+v", got, a)
	}
	if got, _ := ed.Device("C"); !reflect.DeepEqual(got, c) {
		t.Errorf("C changed: %+v, want %+v", got, c)
	}
	if got := ed.Selected(); got != "" {
		t.Errorf("Selected() = %q, want cleared", got)
	}
}

func TestEditor_DeleteNodeKeepsUnrelatedSelection(t *testing.T) {
	ed := wired(t)
	ed.Select("A")
	ed.DeleteNode("C")
	if got := ed.Selected(); got != "A" {
		t.Errorf("Selected() = %q, want A", got)
	}
}

func TestEditor_UpdateNodeData(t *testing.T) {
	ed := NewEditor()
	name := ed.AddDevice("")

	desc, typ, ext := "main intake", "noria", "N-01"
	pos := Position{X: 5, Y: 7}
	ed.UpdateNodeData(name, DevicePatch{Description: &desc, Type: &typ, ExternalID: &ext, Position: &pos})

	d, _ := ed.Device(name)
	if d.Description != desc || d.Type != typ || d.ExternalID != ext || d.Position != pos {
		t.Errorf("Device() = %+v, want merged fields", d)
	}

	empty := ""
	ed.UpdateNodeData(name, DevicePatch{Type: &empty})
	d, _ = ed.Device(name)
	if d.Type != "" || d.Description != desc {
		t.Errorf("Device() = %+v, want type cleared and description kept", d)
	}
}

func TestEditor_AddPort(t *testing.T) {
	ed := NewEditor()
	dev := ed.AddDevice("")

	want := []struct {
		dir  Direction
		name string
	}{
		{DirectionIn, "Input"},
		{DirectionOut, "Output"},
		{DirectionIn, "Input 2"},
		{DirectionIn, "Input 3"},
		{DirectionOut, "Output 2"},
	}
	for i, w := range want {
		got, ok := ed.AddPort(dev, w.dir)
		if !ok || got != w.name {
			t.Fatalf("AddPort #%d = %q, %v; want %q, true", i, got, ok, w.name)
		}
	}

	d, _ := ed.Device(dev)
	for i, p := range d.Ports {
		if p.Order != i || p.Name != want[i].name || p.Direction != want[i].dir {
			t.Errorf("port %d = %+v, want %s/%s order %d", i, p, want[i].name, want[i].dir, i)
		}
	}

	if _, ok := ed.AddPort("missing", DirectionIn); ok {
		t.Error("AddPort on unknown device reported success")
	}
	if _, ok := ed.AddPort(dev, Direction("sideways")); ok {
		t.Error("AddPort with invalid direction reported success")
	}
}

func TestEditor_RenamePort(t *testing.T) {
	tests := []struct {
		name    string
		device  string
		from    string
		to      string
		wantErr error
	}{
		{"ok", "B", "Input", "Intake", nil},
		{"unchanged", "B", "Input", "Input", nil},
		{"empty", "B", "Input", " ", ErrEmptyName},
		{"taken on same device", "B", "Input", "Output", ErrNameExists},
		{"port separator", "B", "Input", "x::y", ErrReservedName},
		{"connection separator", "B", "Input", "In --> A", ErrReservedName},
		{"unknown device", "Z", "Input", "X", ErrDeviceNotFound},
		{"unknown port", "B", "Nope", "X", ErrPortNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := wired(t)
			before := ed.Snapshot()
			err := ed.RenamePort(tt.device, tt.from, tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RenamePort() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil && !reflect.DeepEqual(ed.Snapshot(), before) {
				t.Error("graph changed on rejected rename")
			}
		})
	}
}

func TestEditor_RenamePortCascades(t *testing.T) {
	ed := wired(t)
	if err := ed.AddInternalConnection("B", "Input", "Output"); err != nil {
		t.Fatalf("AddInternalConnection() error = %v", err)
	}

	if err := ed.RenamePort("B", "Input", "Intake"); err != nil {
		t.Fatalf("RenamePort() error = %v", err)
	}

	ids := map[string]bool{}
	for _, c := range ed.Connections() {
		ids[c.ID] = true
	}
	if !ids["A::Output --> B::Intake"] || !ids["B::Output --> C::Input"] {
		t.Errorf("connection ids = %v, want renamed endpoint", ids)
	}

	b, _ := ed.Device("B")
	want := []InternalConnectionView{{InPort: "Intake", OutPort: "Output"}}
	if !reflect.DeepEqual(b.InternalConnections, want) {
		t.Errorf("internal connections = %+v, want %+v", b.InternalConnections, want)
	}

	// A port name is unique per device only.
	if err := ed.RenamePort("A", "Input", "Intake"); err != nil {
		t.Errorf("RenamePort on another device error = %v, want nil", err)
	}
}

func TestEditor_DeletePortCascades(t *testing.T) {
	ed := wired(t)
	if err := ed.AddInternalConnection("B", "Input", "Output"); err != nil {
		t.Fatalf("AddInternalConnection() error = %v", err)
	}

	ed.DeletePort("B", "Input")

	b, _ := ed.Device("B")
	if len(b.Ports) != 1 || b.Ports[0].Name != "Output" {
		t.Errorf("B ports = %+v, want only Output", b.Ports)
	}
	if len(b.InternalConnections) != 0 {
		t.Errorf("B internal connections = %+v, want none", b.InternalConnections)
	}
	conns := ed.Connections()
	if len(conns) != 1 || conns[0].ID != "B::Output --> C::Input" {
		t.Errorf("Connections() = %+v, want only B -> C", conns)
	}
}

func TestEditor_ConnectSilentRejections(t *testing.T) {
	ed := wired(t)

	tests := []struct {
		name           string
		sd, sp, td, tp string
	}{
		{"self loop", "A", "Output", "A", "Input"},
		{"duplicate", "A", "Output", "B", "Input"},
		{"unknown device", "A", "Output", "Z", "Input"},
		{"unknown port", "A", "Nope", "B", "Input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ed.Connections()
			_, ok := ed.Connect(tt.sd, tt.sp, tt.td, tt.tp)
			if ok {
				t.Fatal("Connect() accepted, want silent rejection")
			}
			if got := ed.Connections(); !reflect.DeepEqual(got, before) {
				t.Errorf("connections changed: %+v", got)
			}
		})
	}
}

func TestEditor_ConnectDirectionCheck(t *testing.T) {
	build := func(enforce bool) *Editor {
		ed := NewEditor(WithDirectionCheck(enforce))
		for _, name := range []string{"X", "Y"} {
			dev := ed.AddDevice("")
			_ = ed.RenameDevice(dev, name)
			ed.AddPort(name, DirectionIn)
			ed.AddPort(name, DirectionOut)
		}
		return ed
	}

	if _, ok := build(false).Connect("X", "Input", "Y", "Output"); !ok {
		t.Error("direction convention enforced without WithDirectionCheck")
	}

	ed := build(true)
	if _, ok := ed.Connect("X", "Input", "Y", "Output"); ok {
		t.Error("in -> out accepted with WithDirectionCheck")
	}
	if _, ok := ed.Connect("X", "Output", "Y", "Input"); !ok {
		t.Error("out -> in rejected with WithDirectionCheck")
	}
}

func TestEditor_Disconnect(t *testing.T) {
	ed := wired(t)

	if ed.Disconnect("A::Output --> Z::Input") {
		t.Error("Disconnect of unknown id reported success")
	}
	if !ed.Disconnect("A::Output --> B::Input") {
		t.Fatal("Disconnect() = false, want true")
	}
	conns := ed.Connections()
	if len(conns) != 1 || conns[0].ID != "B::Output --> C::Input" {
		t.Errorf("Connections() = %+v", conns)
	}

	// IDs are derived from current names.
	if err := ed.RenameDevice("C", "Silo"); err != nil {
		t.Fatal(err)
	}
	if !ed.Disconnect("B::Output --> Silo::Input") {
		t.Error("Disconnect by renamed id failed")
	}
}

func TestEditor_ApplyEdgeChanges(t *testing.T) {
	ed, rec := newTestEditor(t)
	for _, name := range []string{"A", "B"} {
		dev := ed.AddDevice("")
		_ = ed.RenameDevice(dev, name)
		ed.AddPort(name, DirectionIn)
		ed.AddPort(name, DirectionOut)
	}
	ed.Connect("A", "Output", "B", "Input")
	ed.Connect("B", "Output", "A", "Input")

	n := ed.ApplyEdgeChanges([]EdgeChange{
		{Type: EdgeChangeSelect, ID: "A::Output --> B::Input"},
		{Type: EdgeChangeRemove, ID: "A::Output --> B::Input"},
		{Type: EdgeChangeRemove, ID: "missing"},
	})
	if n != 1 {
		t.Errorf("ApplyEdgeChanges() = %d, want 1", n)
	}
	if got := len(ed.Connections()); got != 1 {
		t.Errorf("connections = %d, want 1", got)
	}
	if ev := rec.last(t); ev.Op != OpEdgeChanges || ev.ShouldPersist() {
		t.Errorf("last event = %+v, want non-persisting edge changes", ev)
	}
}

func TestEditor_InternalConnections(t *testing.T) {
	ed := wired(t)

	tests := []struct {
		name    string
		device  string
		in, out string
		wantErr error
	}{
		{"ok", "B", "Input", "Output", nil},
		{"duplicate", "B", "Input", "Output", ErrAlreadyExists},
		{"wrong direction", "B", "Output", "Input", ErrDirectionMismatch},
		{"unknown device", "Z", "Input", "Output", ErrDeviceNotFound},
		{"unknown port", "B", "Input", "Nope", ErrPortNotFound},
	}
	for _, tt := range tests {
		err := ed.AddInternalConnection(tt.device, tt.in, tt.out)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: AddInternalConnection() error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}

	b, _ := ed.Device("B")
	if len(b.InternalConnections) != 1 {
		t.Fatalf("internal connections = %+v, want exactly one", b.InternalConnections)
	}

	ed.DeleteInternalConnection("B", "Input", "Nope")
	ed.DeleteInternalConnection("B", "Input", "Output")
	b, _ = ed.Device("B")
	if len(b.InternalConnections) != 0 {
		t.Errorf("internal connections = %+v, want none", b.InternalConnections)
	}
}

// Connections are drawn by dragging and fail silently; routes are entered
// through a form and fail loudly. Both behaviours are deliberate.
func TestEditor_DuplicateRejectionIsSilentForConnectionsButExplicitForRoutes(t *testing.T) {
	ed := wired(t)

	id, ok := ed.Connect("A", "Output", "B", "Input")
	if ok {
		t.Errorf("duplicate Connect(%q) accepted", id)
	}

	if err := ed.AddInternalConnection("B", "Input", "Output"); err != nil {
		t.Fatalf("first AddInternalConnection() error = %v", err)
	}
	err := ed.AddInternalConnection("B", "Input", "Output")
	var ve *ValidationError
	if !errors.As(err, &ve) || !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("second AddInternalConnection() error = %v, want *ValidationError wrapping ErrAlreadyExists", err)
	}
}

func TestEditor_EventsPersistFlags(t *testing.T) {
	ed, rec := newTestEditor(t)
	dev := ed.AddDevice("")
	ed.AddPort(dev, DirectionIn)

	tests := []struct {
		name    string
		action  func()
		op      Op
		persist bool
	}{
		{"move", func() { ed.MoveDevice(dev, Position{X: 1, Y: 2}) }, OpMoveDevice, false},
		{"node changes", func() {
			ed.ApplyNodeChanges([]NodeChange{{Type: NodeChangePosition, Name: dev, Position: &Position{X: 3}}})
		}, OpNodeChanges, false},
		{"commit layout", ed.CommitLayout, OpCommitLayout, true},
		{"add port", func() { ed.AddPort(dev, DirectionOut) }, OpAddPort, true},
		{"select", func() { ed.Select(dev) }, OpSelect, false},
		{"position only patch", func() {
			ed.UpdateNodeData(dev, DevicePatch{Position: &Position{X: 4, Y: 4}})
		}, OpMoveDevice, false},
		{"mixed patch", func() {
			desc := "feed"
			ed.UpdateNodeData(dev, DevicePatch{Description: &desc, Position: &Position{X: 5, Y: 5}})
		}, OpUpdateDevice, true},
		{"description patch", func() {
			desc := "intake"
			ed.UpdateNodeData(dev, DevicePatch{Description: &desc})
		}, OpUpdateDevice, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.action()
			ev := rec.last(t)
			if ev.Op != tt.op {
				t.Fatalf("last event op = %s, want %s", ev.Op, tt.op)
			}
			if ev.ShouldPersist() != tt.persist {
				t.Errorf("ShouldPersist() = %v, want %v", ev.ShouldPersist(), tt.persist)
			}
		})
	}
}

func TestEditor_RejectedConnectEventDoesNotPersist(t *testing.T) {
	ed, rec := newTestEditor(t)
	dev := ed.AddDevice("")
	ed.AddPort(dev, DirectionOut)
	ed.AddPort(dev, DirectionIn)

	ed.Connect(dev, "Output", dev, "Input")

	ev := rec.last(t)
	if ev.Op != OpConnect || ev.Outcome != OutcomeRejected || ev.ShouldPersist() {
		t.Errorf("last event = %+v, want rejected non-persisting connect", ev)
	}
}

func TestEditor_ObserverSeesPostMutationStore(t *testing.T) {
	ed := NewEditor()
	for _, name := range []string{"A", "B"} {
		dev := ed.AddDevice("")
		_ = ed.RenameDevice(dev, name)
		ed.AddPort(name, DirectionIn)
		ed.AddPort(name, DirectionOut)
	}

	var seen []ConnectionView
	unsubscribe := ed.Subscribe(func(ev Event) {
		if ev.Op == OpConnect {
			// Reading back from inside the observer must not deadlock.
			seen = ed.Connections()
		}
	})
	defer unsubscribe()

	ed.Connect("A", "Output", "B", "Input")
	if len(seen) != 1 {
		t.Errorf("observer saw %d connections, want 1", len(seen))
	}
}

func TestEditor_ObserverPanicRecovered(t *testing.T) {
	ed, rec := newTestEditor(t)
	ed.Subscribe(func(Event) { panic("boom") })
	ed.Subscribe(rec.observe)

	ed.AddDevice("")
	if rec.count() != 2 {
		t.Errorf("recorded %d events after panic, want 2 (one per recorder)", rec.count())
	}
}

func TestEditor_Unsubscribe(t *testing.T) {
	ed := NewEditor()
	rec := &recorder{}
	unsubscribe := ed.Subscribe(rec.observe)
	ed.AddDevice("")
	unsubscribe()
	ed.AddDevice("")
	if rec.count() != 1 {
		t.Errorf("recorded %d events, want 1", rec.count())
	}
}

func TestEditor_ApplyNodeChangesSelection(t *testing.T) {
	ed := NewEditor()
	a := ed.AddDevice("")
	b := ed.AddDevice("")

	n := ed.ApplyNodeChanges([]NodeChange{
		{Type: NodeChangeSelect, Name: a, Selected: true},
		{Type: NodeChangeSelect, Name: "missing", Selected: true},
		{Type: NodeChangePosition, Name: b},
	})
	if n != 1 {
		t.Errorf("ApplyNodeChanges() = %d, want 1", n)
	}
	if ed.Selected() != a {
		t.Errorf("Selected() = %q, want %q", ed.Selected(), a)
	}

	ed.ApplyNodeChanges([]NodeChange{{Type: NodeChangeSelect, Name: a, Selected: false}})
	if ed.Selected() != "" {
		t.Errorf("Selected() = %q, want empty", ed.Selected())
	}

	for _, node := range ed.Nodes() {
		if node.Selected {
			t.Errorf("node %q still selected", node.Name)
		}
	}
}

func TestEditor_ReplaceRejectsInvalidGraph(t *testing.T) {
	ed := wired(t)
	before := ed.Snapshot()

	bad := before.Clone()
	bad.Devices[1].Name = bad.Devices[0].Name

	if err := ed.Replace(bad); !errors.Is(err, ErrInvalidGraph) {
		t.Fatalf("Replace() error = %v, want ErrInvalidGraph", err)
	}
	if !reflect.DeepEqual(ed.Snapshot(), before) {
		t.Error("graph changed after rejected Replace")
	}
	if err := ed.Replace(nil); err == nil {
		t.Error("Replace(nil) error = nil")
	}
}

func TestEditor_ReplaceAndReset(t *testing.T) {
	src := wired(t)
	ed, rec := newTestEditor(t)
	ed.AddDevice("")
	ed.Select("New device")

	if err := ed.Replace(src.Snapshot()); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if got := ed.Stats(); got != src.Stats() {
		t.Errorf("Stats() = %+v, want %+v", got, src.Stats())
	}
	if ed.Selected() != "" {
		t.Error("selection survived Replace")
	}
	if ev := rec.last(t); ev.Op != OpReplace || !ev.ShouldPersist() {
		t.Errorf("Replace event = %+v, want persisting", ev)
	}

	if err := ed.Reset(DefaultCatalog()); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	want := Stats{DeviceTypes: len(DefaultCatalog())}
	if got := ed.Stats(); got != want {
		t.Errorf("Stats() after Reset = %+v, want %+v", got, want)
	}
	if ev := rec.last(t); ev.Op != OpReset || ev.ShouldPersist() {
		t.Errorf("Reset event = %+v, want non-persisting", ev)
	}
}

func TestEditor_SnapshotIsDeepCopy(t *testing.T) {
	ed := wired(t)
	snap := ed.Snapshot()
	snap.Devices[0].Ports[0].Name = "mutated"
	snap.Connections = nil

	a, _ := ed.Device("A")
	if a.Ports[0].Name == "mutated" || len(ed.Connections()) != 2 {
		t.Error("Snapshot shares memory with the live graph")
	}
}

func TestEditor_ConcurrentReadsAndWrites(t *testing.T) {
	ed := NewEditor(WithCatalog(DefaultCatalog()))
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				name := ed.AddDevice("redler")
				ed.AddPort(name, DirectionIn)
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				_ = ed.Nodes()
				_ = ed.Connections()
			}
		}()
	}
	wg.Wait()

	if got := ed.Stats().Devices; got != 200 {
		t.Errorf("devices = %d, want 200", got)
	}
	if err := ed.Snapshot().Validate(); err != nil {
		t.Errorf("Validate() after concurrent edits: %v", err)
	}
}
