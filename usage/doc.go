// Package usage provides core.UsageRecorder implementations: an in-memory
// log, an append-only JSON Lines file, a structured logger and a fan-out
// that writes to several recorders at once. Summarize aggregates records
// per provider and model for reporting.
//
// Records are never read back by the component that emits them. Readers
// such as the CLI usage report go through ReadFile or Memory.Records.
package usage
