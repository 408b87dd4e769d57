package graph

// Connect wires sourcePort on sourceDevice to targetPort on targetDevice
// and returns the connection identifier.
//
// Connect never returns an error. A self-loop, a duplicate, an endpoint
// that does not resolve or (with WithDirectionCheck) a port used against
// its direction is dropped and reported only through ok == false.
func (e *Editor) Connect(sourceDevice, sourcePort, targetDevice, targetPort string) (id string, ok bool) {
	id = ConnectionID(sourceDevice, sourcePort, targetDevice, targetPort)
	_ = e.mutate(OpConnect, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		if sourceDevice == targetDevice {
			return id, OutcomeRejected, nil
		}
		src, tgt := g.device(sourceDevice), g.device(targetDevice)
		if src == nil || tgt == nil {
			return id, OutcomeRejected, nil
		}
		sp, tp := src.port(sourcePort), tgt.port(targetPort)
		if sp == nil || tp == nil {
			return id, OutcomeRejected, nil
		}
		if e.enforceDirections && (sp.Direction != DirectionOut || tp.Direction != DirectionIn) {
			return id, OutcomeRejected, nil
		}
		c := Connection{
			SourceDevice: src.Key,
			SourcePort:   sp.Key,
			TargetDevice: tgt.Key,
			TargetPort:   tp.Key,
		}
		if g.hasConnection(c) {
			return id, OutcomeRejected, nil
		}
		g.Connections = append(g.Connections, c)
		ok = true
		return id, OutcomeApplied, nil
	})
	return id, ok
}

// Disconnect removes the connection whose current identifier is id.
// It reports whether a connection was removed.
func (e *Editor) Disconnect(id string) bool {
	removed := false
	_ = e.mutate(OpDisconnect, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		if i := g.connectionIndex(id); i >= 0 {
			g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
			removed = true
			return id, OutcomeApplied, nil
		}
		return id, outcomeNoop, nil
	})
	return removed
}

// ApplyEdgeChanges applies a batch of visual edge changes and returns how
// many removals took effect. Selection entries are accepted and ignored;
// edge selection lives in the rendering layer. It never triggers
// persistence.
func (e *Editor) ApplyEdgeChanges(changes []EdgeChange) int {
	removed := 0
	_ = e.mutate(OpEdgeChanges, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		for _, ch := range changes {
			if ch.Type != EdgeChangeRemove {
				continue
			}
			if i := g.connectionIndex(ch.ID); i >= 0 {
				g.Connections = append(g.Connections[:i], g.Connections[i+1:]...)
				removed++
			}
		}
		if removed == 0 {
			return "", outcomeNoop, nil
		}
		return "", OutcomeApplied, nil
	})
	return removed
}

// AddInternalConnection routes inPort to outPort inside one device.
//
// Unlike Connect, a duplicate pair is reported as a *ValidationError
// wrapping ErrAlreadyExists: routes are entered through a form, where the
// user expects feedback.
func (e *Editor) AddInternalConnection(deviceName, inPort, outPort string) error {
	return e.mutate(OpAddInternalConnection, func(g *Graph) (string, Outcome, error) {
		subject := deviceName + portSeparator + inPort + " -> " + outPort
		d := g.device(deviceName)
		if d == nil {
			return subject, "", ErrDeviceNotFound
		}
		in, out := d.port(inPort), d.port(outPort)
		if in == nil || out == nil {
			return subject, "", ErrPortNotFound
		}
		if in.Direction != DirectionIn || out.Direction != DirectionOut {
			return subject, "", invalid("add_internal_connection", "internal_connection", inPort+" -> "+outPort, ErrDirectionMismatch)
		}
		ic := InternalConnection{In: in.Key, Out: out.Key}
		if d.hasInternal(ic) {
			return subject, "", invalid("add_internal_connection", "internal_connection", inPort+" -> "+outPort, ErrAlreadyExists)
		}
		d.InternalConnections = append(d.InternalConnections, ic)
		return subject, OutcomeApplied, nil
	})
}

// DeleteInternalConnection removes the inPort to outPort route if present.
func (e *Editor) DeleteInternalConnection(deviceName, inPort, outPort string) {
	_ = e.mutate(OpDeleteInternalConnection, func(g *Graph) (string, Outcome, error) { //nolint:errcheck // never fails
		subject := deviceName + portSeparator + inPort + " -> " + outPort
		d := g.device(deviceName)
		if d == nil {
			return subject, outcomeNoop, nil
		}
		in, out := d.port(inPort), d.port(outPort)
		if in == nil || out == nil {
			return subject, outcomeNoop, nil
		}
		for i, ic := range d.InternalConnections {
			if ic.In == in.Key && ic.Out == out.Key {
				d.InternalConnections = append(d.InternalConnections[:i], d.InternalConnections[i+1:]...)
				return subject, OutcomeApplied, nil
			}
		}
		return subject, outcomeNoop, nil
	})
}
