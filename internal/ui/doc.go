// Package ui renders the review list as a Bubble Tea program.
//
// The model reads state.Snapshot values from a Syncer, re-reading on every
// change notification and on a one second tick so relative ages stay
// current. Manual refresh, theme cycling and a log overlay are bound to
// single keys; see DefaultKeyMap.
package ui
