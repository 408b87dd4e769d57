// Package notify forwards editor commits to the outside world.
//
// Two notifiers are provided:
//
//   - MQTT publishes every commit on graph/{project}/event/{op} and keeps a
//     retained summary on graph/{project}/summary. Clients can ask for the
//     summary to be republished on graph/{project}/request/summary.
//   - Stats writes mutation, graph size and autosave points to InfluxDB.
//
// Both are graph.Observer values and must never block the editor: MQTT
// queues onto a buffered channel drained by its own goroutine, and Stats
// relies on the asynchronous InfluxDB write API.
package notify
