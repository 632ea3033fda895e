// Package reactive implements the dependency-tracking core of Ripple.
//
// State lives in instrumented Objects and Arrays. Every property (and every
// array, at the collection level) is backed by a Subject. Reading a property
// while a Watcher is evaluating registers that watcher with the property's
// Subject; writing through the instrumented path notifies the Subject, which
// invalidates every subscribed watcher.
//
// Invalidated watchers are coalesced and ordered by the Scheduler, which
// flushes them in creation order on the host's next-tick boundary. Within a
// flush, evaluation is strictly sequential: the reactive graph follows a
// single-threaded cooperative model per mounted root, with the evaluation
// stack held in goroutine-local storage so independent roots can run on
// independent goroutines.
package reactive
