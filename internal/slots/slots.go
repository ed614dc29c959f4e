// Package slots models the fixed daily publish windows used for planning.
//
// A calendar is an ordered list of named hours ("morning" at 9, "evening"
// at 21, ...). Suggestions walk days first, then slots in configured order,
// which makes the returned instant deterministic for a given queue.
package slots

import (
	"errors"
	"fmt"
	"time"

	"postpilot/internal/queue"
)

// DefaultHorizonDays bounds how far ahead slot suggestions look.
const DefaultHorizonDays = 14

var ErrNoFreeSlot = errors.New("no free slot within horizon")

type Slot struct {
	Name string
	Hour int // 0..23, local time
}

type Calendar struct {
	slots []Slot
	loc   *time.Location
}

func NewCalendar(slots []Slot, loc *time.Location) (*Calendar, error) {
	if len(slots) == 0 {
		return nil, errors.New("at least one slot is required")
	}
	for _, s := range slots {
		if s.Hour < 0 || s.Hour > 23 {
			return nil, fmt.Errorf("slot %q: hour %d out of range", s.Name, s.Hour)
		}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{slots: append([]Slot(nil), slots...), loc: loc}, nil
}

// Slots returns the configured windows in order.
func (c *Calendar) Slots() []Slot { return append([]Slot(nil), c.slots...) }

// At resolves a (day, slot) pair to an absolute instant.
func (c *Calendar) At(day time.Time, s Slot) time.Time {
	y, m, d := day.In(c.loc).Date()
	return time.Date(y, m, d, s.Hour, 0, 0, 0, c.loc)
}

// FindNextAvailableSlot returns the first slot instant after now that no
// Pending item already occupies, scanning day offsets 0..horizonDays-1 and,
// within each day, slots in configured order.
//
// Occupancy is exact-instant equality against Pending items only; items in
// other states never block a slot.
func (c *Calendar) FindNextAvailableSlot(now time.Time, pending []queue.Item, horizonDays int) (time.Time, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	taken := make(map[int64]struct{}, len(pending))
	for _, it := range pending {
		if it.Status == queue.StatusPending {
			taken[it.ScheduledFor] = struct{}{}
		}
	}

	for day := 0; day < horizonDays; day++ {
		base := now.In(c.loc).AddDate(0, 0, day)
		for _, s := range c.slots {
			at := c.At(base, s)
			if !at.After(now) {
				continue
			}
			if _, occupied := taken[at.UnixMilli()]; occupied {
				continue
			}
			return at, nil
		}
	}
	return time.Time{}, ErrNoFreeSlot
}

// Cell is one (day, slot) position in the week grid.
type Cell struct {
	Slot Slot
	At   time.Time
	Past bool
	Item *queue.Item // the Pending item occupying this instant, if any
}

// Day is one column of the planning grid.
type Day struct {
	Date  time.Time
	Cells []Cell
}

// Week renders a 7-day grid starting at weekStart for the planning UI.
func (c *Calendar) Week(weekStart, now time.Time, pending []queue.Item) []Day {
	byInstant := make(map[int64]queue.Item, len(pending))
	for _, it := range pending {
		if it.Status == queue.StatusPending {
			byInstant[it.ScheduledFor] = it
		}
	}

	days := make([]Day, 0, 7)
	for d := 0; d < 7; d++ {
		date := weekStart.In(c.loc).AddDate(0, 0, d)
		cells := make([]Cell, 0, len(c.slots))
		for _, s := range c.slots {
			at := c.At(date, s)
			cell := Cell{Slot: s, At: at, Past: !at.After(now)}
			if it, ok := byInstant[at.UnixMilli()]; ok {
				itCopy := it
				cell.Item = &itCopy
			}
			cells = append(cells, cell)
		}
		days = append(days, Day{Date: c.At(date, Slot{Hour: 0}), Cells: cells})
	}
	return days
}
