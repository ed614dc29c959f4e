// Package storage persists the publish queue between runs.
//
// It holds three collections:
//   - Scheduled items (the queue itself)
//   - Audit entries (bounded, newest-first)
//   - The backlog badge counter (derived, UI-facing)
package storage
