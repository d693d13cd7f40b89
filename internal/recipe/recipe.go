package recipe

import (
	"errors"
	"sort"
	"time"

	"ecochef/internal/calendar"
	"ecochef/internal/locale"
)

// ErrNotFound is returned when no saved recipe has the given title.
var ErrNotFound = errors.New("saved recipe not found")

// Recipe is a step-by-step recipe for one dish of a plan. Title is its
// identity: two recipes with the same title are the same recipe.
type Recipe struct {
	Title    string   `json:"title" validate:"required"`
	Steps    []string `json:"steps" validate:"required,min=1"`
	ChefTips string   `json:"chefTips"`
}

// SavedRecipe is a favourite, stamped when it was saved.
type SavedRecipe struct {
	Recipe
	SavedAt   time.Time `json:"savedAt"`
	WeekStart time.Time `json:"weekStart"`
}

// WeekGroup is a bucket of saved recipes sharing a week.
type WeekGroup struct {
	WeekStart time.Time     `json:"weekStart"`
	Label     string        `json:"label"`
	Recipes   []SavedRecipe `json:"recipes"`
}

// IndexOf returns the position of the saved recipe titled title, or -1.
func IndexOf(saved []SavedRecipe, title string) int {
	for i := range saved {
		if saved[i].Title == title {
			return i
		}
	}
	return -1
}

// IsSaved reports whether a recipe with title is among saved.
func IsSaved(saved []SavedRecipe, title string) bool {
	return IndexOf(saved, title) >= 0
}

// Toggle removes r when a recipe with its title is saved, otherwise appends
// it stamped with now. The returned bool is true when r ended up saved.
func Toggle(saved []SavedRecipe, r Recipe, now time.Time, loc *time.Location) ([]SavedRecipe, bool) {
	if idx := IndexOf(saved, r.Title); idx >= 0 {
		return remove(saved, idx), false
	}
	out := make([]SavedRecipe, 0, len(saved)+1)
	out = append(out, saved...)
	return append(out, SavedRecipe{
		Recipe:    r,
		SavedAt:   now,
		WeekStart: calendar.WeekStart(now, loc),
	}), true
}

// Delete removes the saved recipe titled title.
func Delete(saved []SavedRecipe, title string) ([]SavedRecipe, error) {
	idx := IndexOf(saved, title)
	if idx < 0 {
		return saved, ErrNotFound
	}
	return remove(saved, idx), nil
}

func remove(saved []SavedRecipe, idx int) []SavedRecipe {
	out := make([]SavedRecipe, 0, len(saved)-1)
	out = append(out, saved[:idx]...)
	return append(out, saved[idx+1:]...)
}

// GroupByWeek buckets recipes by the week they were saved in, newest week
// first and newest recipe first inside a week. Records written before the
// week start was stored fall back to the week of SavedAt.
func GroupByWeek(saved []SavedRecipe, lang locale.Language, loc *time.Location) []WeekGroup {
	index := map[int64]int{}
	var groups []WeekGroup
	for _, r := range saved {
		ws := r.WeekStart
		if ws.IsZero() {
			ws = calendar.WeekStart(r.SavedAt, loc)
		}
		gi, ok := index[ws.Unix()]
		if !ok {
			gi = len(groups)
			index[ws.Unix()] = gi
			groups = append(groups, WeekGroup{WeekStart: ws, Label: calendar.Label(ws, lang)})
		}
		groups[gi].Recipes = append(groups[gi].Recipes, r)
	}
	for i := range groups {
		rs := groups[i].Recipes
		sort.SliceStable(rs, func(a, b int) bool { return rs[a].SavedAt.After(rs[b].SavedAt) })
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].WeekStart.After(groups[j].WeekStart)
	})
	return groups
}
