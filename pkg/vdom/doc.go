// Package vdom defines Ripple's render-node model and the reconciler that
// converts one render tree into another through a minimal stream of host
// node operations.
//
// The package never touches a concrete platform: node creation and
// mutation go through the NodeOps collaborator, and attribute/style/event
// application goes through the Modules callback lists. The reconciler owns
// the host tree exclusively for the duration of one Patch call.
//
// Child reconciliation uses a four-probe two-ended heuristic with a keyed
// fallback. It is deliberately not an optimal longest-common-subsequence
// diff; single-element moves and insertions at either end resolve in one
// probe, and everything else falls back to a lazily built key index.
package vdom
