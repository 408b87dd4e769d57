package graph

import "strings"

// Default layout for new devices: each one lands slightly offset from the
// previous so they do not stack exactly.
const (
	layoutOrigin = 100
	layoutStep   = 20
)

// AddDevice creates a device of the given type and returns its name.
//
// The name is allocated from the type's label, falling back to the type
// name and then to a generic default. A base containing a connection ID
// separator also falls back to the default. An unknown type is stored as
// given; an empty typeName means no type. AddDevice always succeeds.
func (e *Editor) AddDevice(typeName string) string {
	var name string
	_ = e.mutate(OpAddDevice, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		base := typeName
		if i := g.typeIndex(typeName); i >= 0 && g.DeviceTypes[i].Label != "" {
			base = g.DeviceTypes[i].Label
		}
		if strings.TrimSpace(base) == "" || reservedName(base) {
			base = defaultDeviceName
		}
		name = allocateName(base, func(n string) bool { return g.deviceIndex(n) >= 0 })

		offset := float64(layoutOrigin + len(g.Devices)*layoutStep)
		g.Devices = append(g.Devices, Device{
			Key:      NewKey(),
			Name:     name,
			Type:     typeName,
			Position: Position{X: offset, Y: offset},
		})
		return name, OutcomeApplied, nil
	})
	return name
}

// RenameDevice changes a device's name. Connections follow automatically
// because they reference the device by key.
func (e *Editor) RenameDevice(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	return e.mutate(OpRenameDevice, func(g *Graph) (string, Outcome, error) {
		if newName == "" {
			return oldName, "", invalid("rename_device", "device", newName, ErrEmptyName)
		}
		if reservedName(newName) {
			return oldName, "", invalid("rename_device", "device", newName, ErrReservedName)
		}
		d := g.device(oldName)
		if d == nil {
			return oldName, "", ErrDeviceNotFound
		}
		if newName == oldName {
			return oldName, outcomeNoop, nil
		}
		if g.deviceIndex(newName) >= 0 {
			return oldName, "", invalid("rename_device", "device", newName, ErrNameExists)
		}
		d.Name = newName
		return newName, OutcomeApplied, nil
	})
}

// UpdateNodeData merges the non-nil fields of patch into a device.
// No validation is performed; unknown names are ignored. A patch that only
// carries a position commits as a move and, like MoveDevice, waits for
// CommitLayout to be persisted.
func (e *Editor) UpdateNodeData(name string, patch DevicePatch) {
	op := OpUpdateDevice
	if patch.positionOnly() {
		op = OpMoveDevice
	}
	_ = e.mutate(op, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		d := g.device(name)
		if d == nil {
			return name, outcomeNoop, nil
		}
		if patch.Description != nil {
			d.Description = *patch.Description
		}
		if patch.Type != nil {
			d.Type = *patch.Type
		}
		if patch.ExternalID != nil {
			d.ExternalID = *patch.ExternalID
		}
		if patch.Position != nil {
			d.Position = *patch.Position
		}
		return name, OutcomeApplied, nil
	})
}

// DeleteNode removes a device together with its ports, its internal
// connections and every connection touching it. The selection is cleared
// if it pointed at the device.
func (e *Editor) DeleteNode(name string) {
	_ = e.mutate(OpDeleteDevice, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		i := g.deviceIndex(name)
		if i < 0 {
			return name, outcomeNoop, nil
		}
		key := g.Devices[i].Key
		g.Devices = append(g.Devices[:i], g.Devices[i+1:]...)

		kept := g.Connections[:0]
		for _, c := range g.Connections {
			if c.SourceDevice != key && c.TargetDevice != key {
				kept = append(kept, c)
			}
		}
		g.Connections = kept

		if e.selected == key {
			e.selected = ""
		}
		return name, OutcomeApplied, nil
	})
}

// MoveDevice updates a device's layout position. It is meant to be called
// at frame rate while dragging and never triggers persistence.
func (e *Editor) MoveDevice(name string, pos Position) bool {
	moved := false
	_ = e.mutate(OpMoveDevice, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		d := g.device(name)
		if d == nil {
			return name, outcomeNoop, nil
		}
		d.Position = pos
		moved = true
		return name, OutcomeApplied, nil
	})
	return moved
}

// ApplyNodeChanges applies a batch of position and selection changes and
// returns how many entries took effect. It never triggers persistence.
func (e *Editor) ApplyNodeChanges(changes []NodeChange) int {
	applied := 0
	_ = e.mutate(OpNodeChanges, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		for _, ch := range changes {
			d := g.device(ch.Name)
			if d == nil {
				continue
			}
			switch ch.Type {
			case NodeChangePosition:
				if ch.Position == nil {
					continue
				}
				d.Position = *ch.Position
			case NodeChangeSelect:
				switch {
				case ch.Selected:
					e.selected = d.Key
				case e.selected == d.Key:
					e.selected = ""
				}
			default:
				continue
			}
			applied++
		}
		if applied == 0 {
			return "", outcomeNoop, nil
		}
		return "", OutcomeApplied, nil
	})
	return applied
}

// CommitLayout signals the end of a drag gesture. Positions were already
// applied by MoveDevice or ApplyNodeChanges; this only asks for the layout
// to be persisted.
func (e *Editor) CommitLayout() {
	_ = e.mutate(OpCommitLayout, func(*Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		return "", OutcomeApplied, nil
	})
}
