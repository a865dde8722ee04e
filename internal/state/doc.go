// Package state holds the review sync state shared by the sync controller
// and the UI.
//
// # Phases
//
//	Idle ──Begin──> Loading ──Apply(ok)──> Success
//	                   ^  └────Apply(err)──> Error
//	                   └──────Begin───────────┘ (from either)
//
// Begin moves to Loading, clears any error and hands out a sequence token.
// Apply takes the token back with the fetch outcome.
//
// # Latest initiated wins
//
// Cycles may overlap: a timer tick can fire while a manual refresh is still
// outstanding. Apply compares the token against the most recently issued one
// and drops anything older, so a slow early response can never overwrite a
// fast later one. Close marks the store dead; every in-flight token is
// rejected from then on.
//
// # Update semantics
//
//	// Success: replace the list
//	Apply(seq, list, nil)
//	→ Phase = Success, Reviews = list, ConsecutiveFailures = 0
//
//	// Failure: keep the last good list, record the error
//	Apply(seq, nil, err)
//	→ Phase = Error, Reviews unchanged, ErrorMessage = err.Error()
//
// The UI keeps showing the stale list under an error banner.
//
// # Copies
//
// Snapshot returns a copy of the review slice and wraps the error value, so
// callers can hold snapshots without locking. The store is safe as a zero
// value.
package state
