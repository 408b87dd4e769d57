// Package graph holds the device-graph model and the Editor that mutates it.
//
// A graph is a catalogue of device types, a set of devices (each owning its
// ports and internal routes) and the connections wired between devices.
// The Editor is the only component allowed to change a graph. Every
// operation validates before touching the store, so an edit either fully
// applies or returns an error with the store unchanged.
//
// # Identity
//
// Devices and ports carry a stable surrogate key assigned at creation.
// Connections and internal connections reference those keys, while the
// human-readable names stay mutable attributes. Renaming a device therefore
// never rewrites a connection; the name-keyed views and the connection
// identifier ("Valve::Input --> Valve 2::Output") are derived from the
// current names whenever they are read.
//
// # Rejection styles
//
// Named-entity operations (types, devices, ports, internal connections)
// return a *ValidationError when a name is empty or already taken.
// Connect is different: a self-loop, a duplicate or an unresolvable
// endpoint is dropped silently and reported only through its boolean
// result. The asymmetry is intentional. Connections are drawn by dragging,
// and a failed drag must not interrupt the gesture.
//
// # Commit events
//
// After a successful mutation the Editor releases its lock and then hands
// an Event to every subscriber. Subscribers therefore always observe the
// post-mutation store. Position updates, selection and batched visual edge
// changes produce events whose Persist flag is false; everything else asks
// for persistence.
//
// # Usage
//
//	ed := graph.NewEditor(graph.WithCatalog(graph.DefaultCatalog()))
//	name := ed.AddDevice("noria")
//	in, _ := ed.AddPort(name, graph.DirectionIn)
//	if err := ed.RenamePort(name, in, "Intake"); err != nil {
//	    // *graph.ValidationError
//	}
package graph
