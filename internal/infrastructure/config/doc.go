// Package config handles loading and validating graphd configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (GRAPH_ prefix)
//   - Validation of required fields
//   - Default value handling
//
// Sensitive values (MQTT password, InfluxDB token, S3 keys) should be set
// via environment variables rather than committed to the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/graphd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Project.Name)
package config
