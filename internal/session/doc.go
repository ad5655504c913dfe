// Package session owns the native resources of one inference runtime and drives
// the step-wise generation protocol on top of them. It is structured into small
// files by concern:
//
//   - runtime.go: Runtime type, model/context lifecycle, ordered teardown.
//   - media.go: projector lifecycle and pending media staging.
//   - text.go: tokenization and token-to-text conversion.
//   - ingest.go: prompt ingestion (plain text or interleaved media).
//   - sampler.go: sampling parameter clamping and sampler chain construction.
//   - generation.go: Generation state machine (Begin/Step/Cancel/End/Run).
//   - probe.go: backend enumeration and model metadata snapshots.
//   - errors.go: error kinds and helpers (KindOf, IsNotLoaded, ...).
//   - metrics.go: Prometheus collectors.
//
// A Runtime is single-writer: callers must serialize every method except
// Generation.Cancel, which may be called from any goroutine. Cancellation is
// cooperative; it is observed at the next Step or by the engine's abort poll
// during a long decode, whose granularity the engine decides.
package session
