package shopping

import (
	"errors"
	"time"
)

// ExtrasTag marks the category that collects items added by hand to a saved
// list. Lookups go through the tag; the display name is localised.
const ExtrasTag = "extras"

// ErrNotFound is returned when a history entry or item does not exist.
var ErrNotFound = errors.New("shopping history entry not found")

// Category is one aisle of a shopping list.
type Category struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
	Tag      string   `json:"tag,omitempty"`
}

// ItemRef addresses one item of a list by position and text.
type ItemRef struct {
	CategoryIndex int    `json:"categoryIndex"`
	ItemIndex     int    `json:"itemIndex"`
	Text          string `json:"text"`
}

// HistoryItem is a shopping list saved for later, with its own purchase
// check marks.
type HistoryItem struct {
	ID           string     `json:"id"`
	Date         time.Time  `json:"date"`
	List         []Category `json:"list"`
	CheckedItems []ItemRef  `json:"checkedItems"`
	WeekStart    time.Time  `json:"weekStart"`
	WeekLabel    string     `json:"weekLabel"`
}

// WeekGroup is a bucket of history entries sharing a week.
type WeekGroup struct {
	WeekStart time.Time     `json:"weekStart"`
	Label     string        `json:"label"`
	Items     []HistoryItem `json:"items"`
}

// IsChecked reports whether ref is marked as purchased.
func (h *HistoryItem) IsChecked(ref ItemRef) bool {
	for _, c := range h.CheckedItems {
		if c == ref {
			return true
		}
	}
	return false
}

// ItemCount is the total number of items across categories.
func (h *HistoryItem) ItemCount() int {
	n := 0
	for _, c := range h.List {
		n += len(c.Items)
	}
	return n
}
