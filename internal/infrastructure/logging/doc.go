// Package logging provides structured logging for graphd.
//
// It wraps log/slog with JSON output for production, text output for
// development and the default fields service and version on every entry.
//
// Logging is configured via the logging section of the config file:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting service", "port", 8080)
//
// Packages that log declare their own small Logger interface
// (Debug/Info/Warn/Error) which *Logger satisfies.
//
// Never log secrets such as the MQTT password, InfluxDB token or S3 keys.
package logging
