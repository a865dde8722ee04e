// Package reviewsync keeps the review list fresh.
//
// A Controller fetches once on Start, then again every interval (15 seconds
// by default) until Stop. RefreshNow adds an out-of-band fetch without
// moving the timer. Each fetch is a cycle:
//
//	Begin   → Loading, error cleared, token n issued
//	Fetch   → reviews.Fetcher.FetchReviews
//	Apply n → Success (list replaced) or Error (list kept, message set)
//
// Cycles can overlap. The state store applies a result only when its token
// is still the latest issued, so the most recently started cycle wins no
// matter which response lands first. Stop closes the store and cancels the
// lifecycle context; anything still in flight is dropped on arrival.
//
// Failures never escape a cycle. They become Phase = Error with a readable
// ErrorMessage, and the next tick or manual refresh tries again. There is no
// automatic retry in between.
//
// Time comes from a k8s.io/utils/clock.WithTicker so tests can drive the
// cadence with a fake clock.
package reviewsync
