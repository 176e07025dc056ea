package view

import (
	"fmt"
	"slices"

	"github.com/cpuguy83/calview/internal/calmath"
)

// SlotMillis is the length of a blockable slot in milliseconds.
const SlotMillis = 30 * 60 * 1000

// BlockedTimes maps a day, or calmath.EveryDay, to the half-hour slots
// blocked on it. Slots are offsets from midnight in milliseconds.
type BlockedTimes struct {
	slots map[calmath.Date]map[int64]struct{}
}

// Add blocks every slot in [from, to) on day. Both offsets must be
// non-negative multiples of SlotMillis with to > from; anything else is a
// programming error and panics.
func (b *BlockedTimes) Add(day calmath.Date, from, to int64) {
	if from < 0 || to <= from || from%SlotMillis != 0 || to%SlotMillis != 0 {
		panic(fmt.Sprintf("view: invalid time block [%d, %d): offsets must be half-hour aligned and increasing", from, to))
	}
	if b.slots == nil {
		b.slots = make(map[calmath.Date]map[int64]struct{})
	}
	set := b.slots[day]
	if set == nil {
		set = make(map[int64]struct{})
		b.slots[day] = set
	}
	for off := from; off < to; off += SlotMillis {
		set[off] = struct{}{}
	}
}

// Clear removes every block.
func (b *BlockedTimes) Clear() {
	b.slots = nil
}

// ClearDay removes the blocks stored for day. Clearing calmath.EveryDay
// removes the blocks that apply to all days.
func (b *BlockedTimes) ClearDay(day calmath.Date) {
	delete(b.slots, day)
}

// Slots returns the sorted union of the slots blocked on every day and on day.
func (b *BlockedTimes) Slots(day calmath.Date) []int64 {
	out := []int64{}
	if b == nil {
		return out
	}
	for off := range b.slots[calmath.EveryDay] {
		out = append(out, off)
	}
	if !day.IsZero() {
		for off := range b.slots[day] {
			if _, dup := b.slots[calmath.EveryDay][off]; !dup {
				out = append(out, off)
			}
		}
	}
	slices.Sort(out)
	return out
}
