// Package app is the composition root for reviewdeck.
//
// Run loads configuration, opens the log file, builds the review client and
// the sync controller, optionally serves Prometheus metrics, and then runs
// the TUI until the user quits or the context is cancelled:
//
//	config.Load -> logging.New -> reviews.NewClient
//	            -> reviewsync.New(...).Start
//	            -> ui.Run (blocks)
//
// Only startup problems are returned as errors. Fetch failures after
// startup are shown in the UI and logged; they never end the run.
package app
