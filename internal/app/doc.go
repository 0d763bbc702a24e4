// Package app wires the SalesPulse service together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, an optional YAML file and the environment
//	2. Initialize logging, tracing and the Prometheus registry
//	3. Create the upload store and the event publishers
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns after SIGINT, SIGTERM or cancellation of its context. In-flight
// requests are drained, websocket clients are disconnected, the Kafka writer
// is flushed and telemetry providers are shut down.
//
// The package never calls os.Exit; the caller controls the exit code.
package app
