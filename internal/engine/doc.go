// Package engine drives the publish queue.
//
// # Overview
//
// A single ticker wakes the engine, which loads Pending items, decides for
// each due item whether to attempt publishing (within the grace period) or
// to park it in the backlog, and records every outcome in the audit log.
//
// # Idempotency
//
// Before the poster is invoked, the item is durably flipped to Posting.
// A second tick observing the same item sees Posting, not Pending, and skips
// it. This makes overlapping or re-entered ticks safe: each due item gets at
// most one publish attempt and one terminal outcome.
//
// # Recovery
//
// Items stuck in Posting longer than the stuck threshold are presumed
// crashed and swept to the backlog at startup. The sweep is safe to re-run
// at any time. From the backlog an item can be retried, rescheduled (which
// replaces it under a new ID) or deleted.
package engine
