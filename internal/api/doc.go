// Package api implements the HTTP REST API and WebSocket server for graphd.
//
// This package provides:
//   - REST endpoints for every editor intent (device types, devices, ports,
//     connections, internal routes and batched canvas changes)
//   - Whole-graph endpoints: current payload, export, import, new project
//   - Commit history listing, when the history recorder is enabled
//   - WebSocket hub broadcasting "graph.changed" after every applied commit
//   - Middleware stack (request ID, logging, recovery, CORS, body limits)
//   - Prometheus exposition on the root metrics path
//
// # Architecture
//
// The API sits between a rendering layer (the canvas) and the editor. The
// canvas sends intents; the editor validates and commits them; the server
// subscribes to commit events and pushes them to WebSocket clients so every
// open canvas can refresh.
//
// Error responses share one envelope, {"status", "code", "message"}.
// Validation failures map to 400, name collisions to 409 and unknown
// devices or ports to 404. A silently rejected connection is not an error:
// it answers 200 with "applied": false.
package api
