// Package telemetry provides core.TelemetryHook implementations for
// structured logging and OpenTelemetry tracing. Combine several with
// core.MultiTelemetryHook.
package telemetry
