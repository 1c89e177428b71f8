package chart

import "github.com/google/uuid"

// The ordering engine maintains the dense 1-based order invariant over a
// chart's items. Every function here is a pure transform over a slice; none
// of them performs I/O. Callers persist the result.

// Renumber rewrites Order so that items[i].Order == i+1. Calling it on an
// already-dense sequence changes nothing.
func Renumber(items []*ChartItem) {
	for i, it := range items {
		it.Order = i + 1
	}
}

// InsertAfterOrder splices item in immediately after the position afterOrder
// (so a request of 1 lands the new item at order 2), then renumbers. An
// afterOrder below zero or past the end appends.
func InsertAfterOrder(items []*ChartItem, afterOrder int, item *ChartItem) []*ChartItem {
	idx := afterOrder
	if idx < 0 || idx > len(items) {
		idx = len(items)
	}
	items = append(items, nil)
	copy(items[idx+1:], items[idx:])
	items[idx] = item
	Renumber(items)
	return items
}

// Remove filters out the item with the given id and renumbers the rest.
func Remove(items []*ChartItem, itemID uuid.UUID) []*ChartItem {
	out := items[:0]
	for _, it := range items {
		if it.ID != itemID {
			out = append(out, it)
		}
	}
	Renumber(out)
	return out
}

// MoveUp swaps the item at i with its predecessor. No-op at the top.
func MoveUp(items []*ChartItem, i int) {
	if i <= 0 || i >= len(items) {
		return
	}
	items[i-1], items[i] = items[i], items[i-1]
	Renumber(items)
}

// MoveDown swaps the item at i with its successor. No-op at the bottom.
func MoveDown(items []*ChartItem, i int) {
	if i < 0 || i >= len(items)-1 {
		return
	}
	items[i], items[i+1] = items[i+1], items[i]
	Renumber(items)
}

// Move implements drag-and-drop reorder: the item at src is removed and
// reinserted at dst, preserving the relative order of everything else, then
// the sequence is renumbered. Out-of-range indexes leave the slice unchanged.
func Move(items []*ChartItem, src, dst int) {
	if src < 0 || src >= len(items) || dst < 0 || dst >= len(items) || src == dst {
		return
	}
	moved := items[src]
	if src < dst {
		copy(items[src:], items[src+1:dst+1])
	} else {
		copy(items[dst+1:], items[dst:src])
	}
	items[dst] = moved
	Renumber(items)
}

// Dense reports whether items are ordered exactly 1..N in slice order.
func Dense(items []*ChartItem) bool {
	for i, it := range items {
		if it.Order != i+1 {
			return false
		}
	}
	return true
}
