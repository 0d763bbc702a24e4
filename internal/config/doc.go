// Package config loads the SalesPulse service configuration.
//
// # Configuration Sources
//
// Values are resolved in the following order, later sources winning:
//
//	1. Default() values
//	2. A YAML file (config.yaml, configs/config.yaml, or SALESPULSE_CONFIG_FILE)
//	3. Environment variables, including any loaded from a local .env file
//
// # Environment Variables
//
// All environment variables use the SALESPULSE_ prefix followed by the
// section and field name:
//
//	SALESPULSE_SERVER_PORT=8000
//	SALESPULSE_SECURITY_ALLOWED_ORIGINS=http://localhost:3000
//	SALESPULSE_LOGGING_LEVEL=debug
//	SALESPULSE_LOGGING_MAX_SIZE_MB=50
//	SALESPULSE_TELEMETRY_TRACE_EXPORTER=stdout
//	SALESPULSE_EVENTS_KAFKA_BROKERS=localhost:9092
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := &http.Server{Addr: cfg.Server.Addr()}
//
// Load validates the result; Default() alone is always valid.
package config
