package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Export serializes the full item list to a transportable JSON array.
func Export(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	SortBySchedule(items)
	return json.MarshalIndent(items, "", "  ")
}

// Import decodes an exported array against the existing collection and
// returns the items to append, sorted by publish instant.
//
// Imported items keep their IDs unless one collides with an existing item
// (or with an earlier item in the same batch), in which case a fresh ID is
// assigned.
func Import(existing []Item, data []byte) ([]Item, error) {
	var incoming []Item
	if err := json.Unmarshal(data, &incoming); err != nil {
		return nil, fmt.Errorf("decode import: %w", err)
	}

	seen := make(map[string]struct{}, len(existing))
	for _, it := range existing {
		seen[it.ID] = struct{}{}
	}

	added := make([]Item, 0, len(incoming))
	for _, it := range incoming {
		if _, dup := seen[it.ID]; dup || it.ID == "" {
			it.ID = uuid.NewString()
		}
		if !it.Status.Valid() {
			it.Status = StatusPending
		}
		seen[it.ID] = struct{}{}
		added = append(added, it)
	}

	SortBySchedule(added)
	return added, nil
}
