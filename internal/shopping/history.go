package shopping

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ecochef/internal/calendar"
	"ecochef/internal/locale"

	"github.com/google/uuid"
)

// NewHistoryItem builds a history entry from the given categories. It reports
// false, and builds nothing, when categories is empty.
func NewHistoryItem(categories []Category, now time.Time, loc *time.Location, lang locale.Language) (*HistoryItem, bool, error) {
	if len(categories) == 0 {
		return nil, false, nil
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, false, fmt.Errorf("failed to allocate history id: %w", err)
	}

	list := make([]Category, len(categories))
	for i, c := range categories {
		list[i] = Category{Category: c.Category, Tag: c.Tag, Items: append([]string(nil), c.Items...)}
	}

	weekStart := calendar.WeekStart(now, loc)
	return &HistoryItem{
		ID:           id.String(),
		Date:         now,
		List:         list,
		CheckedItems: []ItemRef{},
		WeekStart:    weekStart,
		WeekLabel:    calendar.Label(weekStart, lang),
	}, true, nil
}

// Prepend puts item first, keeping the sequence most-recent-first.
func Prepend(items []HistoryItem, item HistoryItem) []HistoryItem {
	out := make([]HistoryItem, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

// Find returns the index of the entry with id, or -1.
func Find(items []HistoryItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

// Delete removes the entry with id.
func Delete(items []HistoryItem, id string) ([]HistoryItem, bool) {
	idx := Find(items, id)
	if idx < 0 {
		return items, false
	}
	out := make([]HistoryItem, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...), true
}

// ToggleChecked flips the purchased mark of one item. Items with the same
// text in different categories are independent.
func (h *HistoryItem) ToggleChecked(ref ItemRef) error {
	if ref.CategoryIndex < 0 || ref.CategoryIndex >= len(h.List) {
		return fmt.Errorf("category %d: %w", ref.CategoryIndex, ErrNotFound)
	}
	items := h.List[ref.CategoryIndex].Items
	if ref.ItemIndex < 0 || ref.ItemIndex >= len(items) || items[ref.ItemIndex] != ref.Text {
		return fmt.Errorf("item %d %q: %w", ref.ItemIndex, ref.Text, ErrNotFound)
	}

	for i, c := range h.CheckedItems {
		if c == ref {
			h.CheckedItems = append(h.CheckedItems[:i:i], h.CheckedItems[i+1:]...)
			return nil
		}
	}
	h.CheckedItems = append(h.CheckedItems, ref)
	return nil
}

// AppendExtra adds a free-text item to the extras category, creating it on
// first use. Blank text is ignored and reported as false.
func (h *HistoryItem) AppendExtra(text string, lang locale.Language) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for i := range h.List {
		if h.List[i].Tag == ExtrasTag {
			h.List[i].Items = append(h.List[i].Items, text)
			return true
		}
	}
	h.List = append(h.List, Category{
		Category: lang.ExtrasCategory(),
		Tag:      ExtrasTag,
		Items:    []string{text},
	})
	return true
}

// GroupByWeek buckets entries by their stored week start, newest week first.
// Labels are rendered in lang; entries keep their stored order inside a week.
func GroupByWeek(items []HistoryItem, lang locale.Language) []WeekGroup {
	index := map[int64]int{}
	var groups []WeekGroup
	for _, it := range items {
		key := it.WeekStart.Unix()
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, WeekGroup{
				WeekStart: it.WeekStart,
				Label:     calendar.Label(it.WeekStart, lang),
			})
		}
		groups[gi].Items = append(groups[gi].Items, it)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].WeekStart.After(groups[j].WeekStart)
	})
	return groups
}
