// Package mqtt provides MQTT client connectivity for graphd.
//
// graphd announces committed graph edits on a broker so other tools
// (dashboards, PLC gateways, audit loggers) can follow the project without
// polling the HTTP API. This package manages the connection with
// auto-reconnect, publishing with QoS checks, subscriptions that survive
// reconnects and a Last Will on the status topic.
//
// Topics live under graph/<project>/:
//
//	graph/<project>/status            retained online/offline
//	graph/<project>/summary           retained entity counts
//	graph/<project>/event/<op>        one message per commit
//	graph/<project>/request/summary   ask for the summary again
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.Topics{Project: cfg.Project.ID})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// TLS should be enabled for brokers reached over untrusted networks.
package mqtt
