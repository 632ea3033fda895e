// Package live serves components over WebSocket. Each connection gets
// its own session: an instrumented state root, a scheduler, and a
// reconciler recording into an op log. Client events mutate the state,
// the scheduler coalesces the resulting re-render, and the flushed op
// frame is shipped back over the socket where the client replays it.
//
// The HTTP surface is a chi router exposing the session endpoint, the
// Prometheus scrape handler, and a health probe. Event handling is
// traced through OpenTelemetry.
package live
