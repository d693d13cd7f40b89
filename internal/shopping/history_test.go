package shopping

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecochef/internal/locale"
	"ecochef/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wednesday = time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

func sampleList() []Category {
	return []Category{
		{Category: "Grains", Items: []string{"rice"}},
		{Category: "Produce", Items: []string{"lime", "onion"}},
	}
}

func TestNewHistoryItem(t *testing.T) {
	t.Run("empty selection is a no-op", func(t *testing.T) {
		item, ok, err := NewHistoryItem(nil, wednesday, time.UTC, locale.Spanish)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, item)
	})

	t.Run("stamps week and starts unchecked", func(t *testing.T) {
		item, ok, err := NewHistoryItem(sampleList(), wednesday, time.UTC, locale.Spanish)
		require.NoError(t, err)
		require.True(t, ok)

		assert.NotEmpty(t, item.ID)
		assert.Equal(t, wednesday, item.Date)
		assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC), item.WeekStart)
		assert.Equal(t, "Semana del 4 de marzo", item.WeekLabel)
		assert.Empty(t, item.CheckedItems)
		assert.NotNil(t, item.CheckedItems)
		assert.Equal(t, 3, item.ItemCount())
	})

	t.Run("copies the input", func(t *testing.T) {
		list := sampleList()
		item, _, err := NewHistoryItem(list, wednesday, time.UTC, locale.English)
		require.NoError(t, err)
		list[0].Items[0] = "changed"
		assert.Equal(t, "rice", item.List[0].Items[0])
	})

	t.Run("ids are unique", func(t *testing.T) {
		a, _, _ := NewHistoryItem(sampleList(), wednesday, time.UTC, locale.Spanish)
		b, _, _ := NewHistoryItem(sampleList(), wednesday, time.UTC, locale.Spanish)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestPrependAndDelete(t *testing.T) {
	var items []HistoryItem
	first, _, _ := NewHistoryItem(sampleList(), wednesday, time.UTC, locale.Spanish)
	second, _, _ := NewHistoryItem(sampleList(), wednesday.Add(time.Hour), time.UTC, locale.Spanish)

	items = Prepend(items, *first)
	items = Prepend(items, *second)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)

	items, ok := Delete(items, second.ID)
	assert.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)

	_, ok = Delete(items, "missing")
	assert.False(t, ok)
}

func TestToggleChecked(t *testing.T) {
	item := &HistoryItem{List: []Category{
		{Category: "A", Items: []string{"salt"}},
		{Category: "B", Items: []string{"salt", "lime"}},
	}}

	a := ItemRef{CategoryIndex: 0, ItemIndex: 0, Text: "salt"}
	b := ItemRef{CategoryIndex: 1, ItemIndex: 0, Text: "salt"}

	require.NoError(t, item.ToggleChecked(a))
	assert.True(t, item.IsChecked(a))
	assert.False(t, item.IsChecked(b), "same text at another position is independent")

	require.NoError(t, item.ToggleChecked(a))
	assert.False(t, item.IsChecked(a))
	assert.Empty(t, item.CheckedItems)

	t.Run("unknown refs are rejected", func(t *testing.T) {
		err := item.ToggleChecked(ItemRef{CategoryIndex: 5})
		assert.True(t, errors.Is(err, ErrNotFound))
		err = item.ToggleChecked(ItemRef{CategoryIndex: 1, ItemIndex: 1, Text: "lemon"})
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestAppendExtra(t *testing.T) {
	item := &HistoryItem{List: sampleList()}

	assert.False(t, item.AppendExtra("   ", locale.Spanish))
	assert.Len(t, item.List, 2)

	assert.True(t, item.AppendExtra("coffee", locale.Spanish))
	require.Len(t, item.List, 3)
	assert.Equal(t, "Agregados", item.List[2].Category)
	assert.Equal(t, ExtrasTag, item.List[2].Tag)

	// A later locale finds the same category through its tag.
	assert.True(t, item.AppendExtra(" tea ", locale.English))
	require.Len(t, item.List, 3)
	assert.Equal(t, []string{"coffee", "tea"}, item.List[2].Items)
}

func TestGroupByWeek(t *testing.T) {
	sunday := time.Date(2024, time.March, 10, 20, 0, 0, 0, time.UTC)
	nextMonday := time.Date(2024, time.March, 11, 8, 0, 0, 0, time.UTC)
	earlierTuesday := time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)

	mk := func(at time.Time) HistoryItem {
		it, _, err := NewHistoryItem(sampleList(), at, time.UTC, locale.Spanish)
		require.NoError(t, err)
		return *it
	}

	// most recent first, as stored
	items := []HistoryItem{mk(nextMonday), mk(sunday), mk(earlierTuesday)}
	groups := GroupByWeek(items, locale.English)

	require.Len(t, groups, 2)
	assert.Equal(t, "Week of March 11", groups[0].Label)
	assert.Len(t, groups[0].Items, 1)
	assert.Equal(t, "Week of March 4", groups[1].Label)
	assert.Len(t, groups[1].Items, 2, "sunday and the tuesday before share a week")
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(storage.NewMemoryStore())

	items, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, items)

	it, _, _ := NewHistoryItem(sampleList(), wednesday, time.UTC, locale.Spanish)
	require.NoError(t, repo.Save(ctx, "alice", []HistoryItem{*it}))

	items, err = repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, it.ID, items[0].ID)
	assert.True(t, it.WeekStart.Equal(items[0].WeekStart))

	other, err := repo.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other)
}
