// Package influxdb provides InfluxDB connectivity for graphd.
//
// It wraps the official influxdb-client-go v2 library and records how a
// project evolves over time:
//   - graph_size: entity counts after each committed edit
//   - graph_autosave: size, duration and outcome of every autosave
//   - graph_mutation: one point per editor commit, tagged by op and outcome
//
// Writes are non-blocking and batched; failures are delivered to the
// callback set with SetOnError.
//
// Usage:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // carry on without it
//	}
//	defer client.Close()
//	client.WriteGraphStats("line-a", editor.Stats(), time.Now())
package influxdb
