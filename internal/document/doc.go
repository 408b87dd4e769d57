// Package document converts graphs to and from the portable graph payload.
//
// The payload is flat and name-keyed: devices are identified by name,
// ports by (device, port) name pairs, and connections by the four endpoint
// names. Surrogate keys never leave the process; Decode assigns fresh keys
// every time.
//
// Two wire formats are provided. JSON is the primary format used for
// export files (graph.json) and for the persistence slot. YAML carries
// exactly the same records and exists for hand-edited fixtures.
//
// Decoding is all-or-nothing. A document that cannot be parsed yields
// ErrParse; one that parses but breaks a graph invariant yields ErrInvalid;
// a version other than the current one yields ErrUnsupportedVersion. In
// every case no graph is returned.
package document
