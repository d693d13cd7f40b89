// Package selection tracks which items of a generated shopping list are
// checked, and derives from them the input of the next generation or the
// list to keep in the shopping history.
package selection

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ecochef/internal/auth"
	"ecochef/internal/planner"
	"ecochef/internal/shopping"
)

// ErrUnknownItem is returned for a key that does not address an item of the
// current shopping list.
var ErrUnknownItem = errors.New("unknown shopping list item")

// RegenerationSeparator joins the original ingredients and the checked items.
const RegenerationSeparator = ", "

// Key addresses one shopping list item by position and text.
type Key struct {
	CategoryIndex int    `json:"categoryIndex"`
	ItemIndex     int    `json:"itemIndex"`
	Text          string `json:"text"`
}

// String renders the key as "<category>-<item>--<text>".
func (k Key) String() string {
	return fmt.Sprintf("%d-%d--%s", k.CategoryIndex, k.ItemIndex, k.Text)
}

// Ref converts the key to a history item reference.
func (k Key) Ref() shopping.ItemRef {
	return shopping.ItemRef{CategoryIndex: k.CategoryIndex, ItemIndex: k.ItemIndex, Text: k.Text}
}

// ParseKey reads the "<category>-<item>--<text>" form. Indices are
// non-negative so the first "-" and the following "--" are unambiguous even
// when the text contains dashes.
func ParseKey(s string) (Key, error) {
	dash := strings.Index(s, "-")
	if dash < 0 {
		return Key{}, fmt.Errorf("malformed item key %q", s)
	}
	rest := s[dash+1:]
	sep := strings.Index(rest, "--")
	if sep < 0 {
		return Key{}, fmt.Errorf("malformed item key %q", s)
	}
	ci, err := strconv.Atoi(s[:dash])
	if err != nil || ci < 0 {
		return Key{}, fmt.Errorf("malformed category index in %q", s)
	}
	ii, err := strconv.Atoi(rest[:sep])
	if err != nil || ii < 0 {
		return Key{}, fmt.Errorf("malformed item index in %q", s)
	}
	return Key{CategoryIndex: ci, ItemIndex: ii, Text: rest[sep+2:]}, nil
}

// Engine holds the checked set for one plan. A new plan gets a new engine;
// keys never carry over.
type Engine struct {
	plan    *planner.PlanResponse
	checked map[Key]bool
}

// New returns an engine with nothing checked.
func New(plan *planner.PlanResponse) *Engine {
	return &Engine{plan: plan, checked: make(map[Key]bool)}
}

func (e *Engine) valid(k Key) bool {
	if e.plan == nil || k.CategoryIndex < 0 || k.CategoryIndex >= len(e.plan.ShoppingList) {
		return false
	}
	items := e.plan.ShoppingList[k.CategoryIndex].Items
	return k.ItemIndex >= 0 && k.ItemIndex < len(items) && items[k.ItemIndex] == k.Text
}

// Toggle flips one item and returns its new state. Toggling twice restores
// the set exactly.
func (e *Engine) Toggle(p auth.Principal, k Key) (bool, error) {
	if err := auth.Require(p); err != nil {
		return false, err
	}
	if !e.valid(k) {
		return false, fmt.Errorf("%s: %w", k, ErrUnknownItem)
	}
	if e.checked[k] {
		delete(e.checked, k)
		return false, nil
	}
	e.checked[k] = true
	return true, nil
}

// IsChecked reports whether k is checked.
func (e *Engine) IsChecked(k Key) bool {
	return e.checked[k]
}

// Count is the number of checked items.
func (e *Engine) Count() int {
	return len(e.checked)
}

// Checked lists the checked keys in shopping list order.
func (e *Engine) Checked() []Key {
	keys := []Key{}
	e.walk(func(k Key) { keys = append(keys, k) })
	return keys
}

// walk visits checked keys category by category, item by item.
func (e *Engine) walk(fn func(Key)) {
	if e.plan == nil {
		return
	}
	for ci, cat := range e.plan.ShoppingList {
		for ii, item := range cat.Items {
			k := Key{CategoryIndex: ci, ItemIndex: ii, Text: item}
			if e.checked[k] {
				fn(k)
			}
		}
	}
}

// RegenerationIngredients folds the checked items into the original
// ingredients: original + ", " + checked items joined by ", ". The separator
// is appended even when nothing is checked.
func (e *Engine) RegenerationIngredients(p auth.Principal, original string) (string, error) {
	if err := auth.Require(p); err != nil {
		return "", err
	}
	var texts []string
	e.walk(func(k Key) { texts = append(texts, k.Text) })
	return original + RegenerationSeparator + strings.Join(texts, ", "), nil
}

// RegenerationRequest builds the next request from prev, replacing only the
// ingredients.
func (e *Engine) RegenerationRequest(p auth.Principal, prev planner.PlanRequest) (planner.PlanRequest, error) {
	ingredients, err := e.RegenerationIngredients(p, prev.IngredientsText)
	if err != nil {
		return planner.PlanRequest{}, err
	}
	return prev.WithIngredients(ingredients), nil
}

// HistorySelection returns the checked subset of each category, in order,
// omitting categories with nothing checked. An empty result means there is
// nothing to save.
func (e *Engine) HistorySelection(p auth.Principal) ([]shopping.Category, error) {
	if err := auth.Require(p); err != nil {
		return nil, err
	}
	out := []shopping.Category{}
	if e.plan == nil {
		return out, nil
	}
	for ci, cat := range e.plan.ShoppingList {
		var items []string
		for ii, item := range cat.Items {
			if e.checked[Key{CategoryIndex: ci, ItemIndex: ii, Text: item}] {
				items = append(items, item)
			}
		}
		if len(items) > 0 {
			out = append(out, shopping.Category{Category: cat.Category, Tag: cat.Tag, Items: items})
		}
	}
	return out, nil
}
