package queue

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("item not found")
	ErrEmptyContent = errors.New("content is empty")
	ErrPastSchedule = errors.New("scheduled time is not in the future")
)

// Status is the lifecycle state of a scheduled item.
type Status string

const (
	StatusPending Status = "pending"
	StatusPosting Status = "posting"
	StatusPosted  Status = "posted"
	StatusBacklog Status = "backlog"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPosting, StatusPosted, StatusBacklog:
		return true
	}
	return false
}

// Media is a single optional attachment.
//
// Kind is a short content hint ("photo"); Ref is an opaque location the
// poster adapter understands (file path or URL).
type Media struct {
	Kind string `json:"kind"`
	Ref  string `json:"ref"`
}

// Item is one scheduled post.
//
// ScheduledFor and the transition timestamps are Unix milliseconds, matching
// the storage layout and the export format.
type Item struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	PlainText string `json:"plain_text"`
	Media     *Media `json:"media,omitempty"`

	ScheduledFor int64  `json:"scheduled_for"`
	Status       Status `json:"status"`
	Error        string `json:"error,omitempty"`

	CreatedAt        int64 `json:"created_at"`
	PostingStartedAt int64 `json:"posting_started_at,omitempty"`
	PostedAt         int64 `json:"posted_at,omitempty"`
	BacklogAt        int64 `json:"backlog_at,omitempty"`
}

// ScheduledTime returns the publish instant as a time.Time.
func (it Item) ScheduledTime() time.Time { return time.UnixMilli(it.ScheduledFor) }

// New validates and builds a Pending item with a fresh ID.
func New(content, plainText string, media *Media, scheduledFor time.Time, now time.Time) (Item, error) {
	if strings.TrimSpace(plainText) == "" {
		return Item{}, ErrEmptyContent
	}
	if !scheduledFor.After(now) {
		return Item{}, ErrPastSchedule
	}
	return Item{
		ID:           uuid.NewString(),
		Content:      content,
		PlainText:    plainText,
		Media:        media,
		ScheduledFor: scheduledFor.UnixMilli(),
		Status:       StatusPending,
		CreatedAt:    now.UnixMilli(),
	}, nil
}

// SortBySchedule orders items by ascending publish instant.
// Ties keep a stable order by ID so repeated sorts are deterministic.
func SortBySchedule(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ScheduledFor != items[j].ScheduledFor {
			return items[i].ScheduledFor < items[j].ScheduledFor
		}
		return items[i].ID < items[j].ID
	})
}

// Pending filters items with status Pending.
func Pending(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Status == StatusPending {
			out = append(out, it)
		}
	}
	return out
}
