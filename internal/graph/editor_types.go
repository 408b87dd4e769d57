package graph

import "strings"

// AddDeviceType appends dt to the catalogue. The name is trimmed; it must
// be non-empty and not already present.
func (e *Editor) AddDeviceType(dt DeviceType) error {
	dt.Name = strings.TrimSpace(dt.Name)
	return e.mutate(OpAddDeviceType, func(g *Graph) (string, Outcome, error) {
		if dt.Name == "" {
			return dt.Name, "", invalid("add_device_type", "device_type", dt.Name, ErrNameRequired)
		}
		if g.typeIndex(dt.Name) >= 0 {
			return dt.Name, "", invalid("add_device_type", "device_type", dt.Name, ErrDuplicateName)
		}
		g.DeviceTypes = append(g.DeviceTypes, dt)
		e.refreshCatalog()
		return dt.Name, OutcomeApplied, nil
	})
}

// UpdateDeviceType merges the non-nil fields of patch into the named type.
// Unknown names are ignored.
func (e *Editor) UpdateDeviceType(name string, patch DeviceTypePatch) {
	_ = e.mutate(OpUpdateDeviceType, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		i := g.typeIndex(name)
		if i < 0 {
			return name, outcomeNoop, nil
		}
		dt := &g.DeviceTypes[i]
		if patch.Label != nil {
			dt.Label = *patch.Label
		}
		if patch.Color != nil {
			dt.Color = *patch.Color
		}
		if patch.Icon != nil {
			dt.Icon = *patch.Icon
		}
		e.refreshCatalog()
		return name, OutcomeApplied, nil
	})
}

// DeleteDeviceType removes a type from the catalogue. Devices of that type
// survive with their type cleared.
func (e *Editor) DeleteDeviceType(name string) {
	_ = e.mutate(OpDeleteDeviceType, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		i := g.typeIndex(name)
		if i < 0 {
			return name, outcomeNoop, nil
		}
		g.DeviceTypes = append(g.DeviceTypes[:i], g.DeviceTypes[i+1:]...)
		for j := range g.Devices {
			if g.Devices[j].Type == name {
				g.Devices[j].Type = ""
			}
		}
		e.refreshCatalog()
		return name, OutcomeApplied, nil
	})
}
