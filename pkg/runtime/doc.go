// Package runtime mounts render functions onto host trees and keeps them
// current. A mounted component owns an instrumented state root, a render
// watcher that re-runs when the state it read changes, and the retained
// render tree the reconciler diffs against.
//
// Renders are scheduled, not immediate: mutations invalidate the render
// watcher and the scheduler coalesces them into one re-render per flush.
// A render that panics is contained; the component keeps its previous
// tree and recovers on the next successful render.
package runtime
