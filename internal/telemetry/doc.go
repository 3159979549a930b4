// Package telemetry sets up OpenTelemetry tracing and metrics export for
// pinrecover.
//
// Traces and metrics go to an OTLP collector over gRPC (default) or
// HTTP/protobuf. Telemetry is off unless enabled in configuration:
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc
//
// Setup failures never stop a scan. The instance degrades to no-op
// providers and reports the reason through Health.
//
// Tests use NewTestTelemetry, which records spans in memory and collects
// metrics through a manual reader.
package telemetry
