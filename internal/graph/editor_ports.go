package graph

import "strings"

// AddPort appends a port to a device and returns the allocated name
// ("Input", "Input 2", ... or "Output", ...). Its order is the current port
// count, so it sorts last. It reports false if the device does not exist.
func (e *Editor) AddPort(deviceName string, dir Direction) (string, bool) {
	var name string
	_ = e.mutate(OpAddPort, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		d := g.device(deviceName)
		if d == nil || !dir.Valid() {
			return deviceName, outcomeNoop, nil
		}
		name = allocateName(dir.baseName(), func(n string) bool { return d.portIndex(n) >= 0 })
		d.Ports = append(d.Ports, Port{
			Key:       NewKey(),
			Name:      name,
			Direction: dir,
			Order:     len(d.Ports),
		})
		return deviceName + portSeparator + name, OutcomeApplied, nil
	})
	return name, name != ""
}

// RenamePort renames a port within its device. Internal connections and
// connections follow automatically because they reference the port by key.
func (e *Editor) RenamePort(deviceName, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	return e.mutate(OpRenamePort, func(g *Graph) (string, Outcome, error) {
		subject := deviceName + portSeparator + oldName
		if newName == "" {
			return subject, "", invalid("rename_port", "port", newName, ErrEmptyName)
		}
		if reservedName(newName) {
			return subject, "", invalid("rename_port", "port", newName, ErrReservedName)
		}
		d := g.device(deviceName)
		if d == nil {
			return subject, "", ErrDeviceNotFound
		}
		p := d.port(oldName)
		if p == nil {
			return subject, "", ErrPortNotFound
		}
		if newName == oldName {
			return subject, outcomeNoop, nil
		}
		if d.portIndex(newName) >= 0 {
			return subject, "", invalid("rename_port", "port", newName, ErrNameExists)
		}
		p.Name = newName
		return deviceName + portSeparator + newName, OutcomeApplied, nil
	})
}

// DeletePort removes a port along with the internal connections and
// connections that use it. Unknown devices or ports are ignored.
func (e *Editor) DeletePort(deviceName, portName string) {
	_ = e.mutate(OpDeletePort, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		subject := deviceName + portSeparator + portName
		d := g.device(deviceName)
		if d == nil {
			return subject, outcomeNoop, nil
		}
		i := d.portIndex(portName)
		if i < 0 {
			return subject, outcomeNoop, nil
		}
		portKey := d.Ports[i].Key
		d.Ports = append(d.Ports[:i], d.Ports[i+1:]...)

		routes := d.InternalConnections[:0]
		for _, ic := range d.InternalConnections {
			if ic.In != portKey && ic.Out != portKey {
				routes = append(routes, ic)
			}
		}
		d.InternalConnections = routes

		kept := g.Connections[:0]
		for _, c := range g.Connections {
			if (c.SourceDevice == d.Key && c.SourcePort == portKey) ||
				(c.TargetDevice == d.Key && c.TargetPort == portKey) {
				continue
			}
			kept = append(kept, c)
		}
		g.Connections = kept
		return subject, OutcomeApplied, nil
	})
}
