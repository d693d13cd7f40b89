package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"ecochef/internal/auth"
	"ecochef/internal/ghost"
	"ecochef/internal/locale"
	"ecochef/internal/metrics"
	"ecochef/internal/planner"
	"ecochef/internal/recipe"
	"ecochef/internal/selection"
	"ecochef/internal/shared"
	"ecochef/internal/shopping"
	"ecochef/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wednesday = time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)

var alice = auth.Identity{UserID: "alice", Email: "alice@example.com"}

type fakeGenerator struct {
	mu       sync.Mutex
	plan     *planner.PlanResponse
	err      error
	requests []planner.PlanRequest
	started  chan struct{}
	release  chan struct{}
}

func (f *fakeGenerator) RequestPlan(_ context.Context, req planner.PlanRequest) (*planner.PlanResponse, shared.AgentMeta, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	plan, err := f.plan, f.err
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	meta := shared.AgentMeta{
		AgentName: "EcoChef",
		Usage:     shared.TokenUsage{PromptTokens: 10, CompletionTokens: 90, TotalTokens: 100, Model: "fake"},
		Latency:   time.Second,
	}
	if err != nil {
		return nil, meta, err
	}
	return plan, meta, nil
}

func (f *fakeGenerator) last() planner.PlanRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeUsage struct {
	metas []shared.AgentMeta
}

func (f *fakeUsage) RecordMeta(_ context.Context, meta shared.AgentMeta) error {
	f.metas = append(f.metas, meta)
	return nil
}

type fakePublisher struct {
	title, html string
	publish     bool
}

func (f *fakePublisher) CreatePost(_ context.Context, title, html string, publish bool) (*ghost.Post, error) {
	f.title, f.html, f.publish = title, html, publish
	return &ghost.Post{ID: "post-1", Title: title, Status: "draft"}, nil
}

// counterValue reads a counter from the registry; outcome filters on the
// outcome label when set.
func counterValue(t *testing.T, c *metrics.Collector, name, outcome string) float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if outcome == "" {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func loadPlan(t *testing.T) *planner.PlanResponse {
	t.Helper()
	data, err := os.ReadFile("../planner/testdata/plan_response.json")
	require.NoError(t, err)
	plan, err := planner.ParseResponse(data)
	require.NoError(t, err)
	return plan
}

type fixture struct {
	app   *App
	gen   *fakeGenerator
	usage *fakeUsage
	prom  *metrics.Collector
	store *storage.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gen:   &fakeGenerator{plan: loadPlan(t)},
		usage: &fakeUsage{},
		prom:  metrics.NewCollector(),
		store: storage.NewMemoryStore(),
	}
	f.app = NewApp(Deps{
		Planner:  f.gen,
		Store:    f.store,
		Usage:    f.usage,
		Metrics:  f.prom,
		Location: time.UTC,
		Now:      func() time.Time { return wednesday },
	})
	return f
}

func riceAndBeans() planner.PlanRequest {
	return planner.BuildRequest("rice, beans", 3, "", locale.Spanish)
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("stores the plan and starts with nothing checked", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)

		assert.Len(t, view.Plan.Plan, 3)
		assert.Empty(t, view.Checked)
		assert.Equal(t, "rice, beans", view.Request.IngredientsText)
		assert.Equal(t, map[string]bool{"Rice and beans bowl": false, "Bean soup": false}, view.Saved)
		assert.Len(t, f.usage.metas, 1)
		assert.Equal(t, 1.0, counterValue(t, f.prom, "ecochef_generations_total", "success"))
	})

	t.Run("blank ingredients change nothing", func(t *testing.T) {
		f := newFixture(t)
		before, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)

		_, err = f.app.Generate(ctx, alice, planner.BuildRequest("   ", 3, "", locale.Spanish))
		var ve *planner.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.True(t, ve.Has("ingredientsText"))
		assert.Equal(t, 1, f.gen.calls())

		after, err := f.app.CurrentPlan(ctx, alice)
		require.NoError(t, err)
		assert.Same(t, before.Plan, after.Plan)
	})

	t.Run("failure keeps the previous plan and selection", func(t *testing.T) {
		f := newFixture(t)
		before, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)
		_, err = f.app.ToggleItem(alice, selection.Key{CategoryIndex: 0, ItemIndex: 0, Text: "rice"})
		require.NoError(t, err)

		f.gen.err = &planner.GenerationError{Reason: planner.ReasonMalformed, Err: errors.New("bad json")}
		_, err = f.app.Generate(ctx, alice, planner.BuildRequest("eggs", 2, "", locale.English))
		var ge *planner.GenerationError
		require.ErrorAs(t, err, &ge)

		after, err := f.app.CurrentPlan(ctx, alice)
		require.NoError(t, err)
		assert.Same(t, before.Plan, after.Plan)
		assert.Equal(t, "rice, beans", after.Request.IngredientsText)
		assert.Len(t, after.Checked, 1)
		assert.Equal(t, 1.0, counterValue(t, f.prom, "ecochef_generations_total", planner.ReasonMalformed))
	})

	t.Run("new plan clears the selection", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)
		_, err = f.app.ToggleItem(alice, selection.Key{CategoryIndex: 1, ItemIndex: 2, Text: "lime"})
		require.NoError(t, err)

		view, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)
		assert.Empty(t, view.Checked)
	})

	t.Run("remembers the input as draft", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.Generate(ctx, alice, planner.BuildRequest("tofu", 5, "vegan", locale.English))
		require.NoError(t, err)

		d, err := f.app.Draft(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, Draft{IngredientsText: "tofu", Days: 5, DietaryRestrictions: "vegan", Language: locale.English}, d)
	})
}

func TestGenerateBusy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.gen.started = make(chan struct{})
	f.gen.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.app.Generate(ctx, alice, riceAndBeans())
		done <- err
	}()
	<-f.gen.started

	_, err := f.app.Generate(ctx, alice, planner.BuildRequest("eggs", 2, "", locale.English))
	assert.ErrorIs(t, err, ErrBusy)
	d, err := f.app.Draft(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "rice, beans", d.IngredientsText, "a rejected request does not replace the draft")

	other := auth.Identity{UserID: "bob"}
	f.gen.mu.Lock()
	release := f.gen.release
	f.gen.started, f.gen.release = nil, nil
	f.gen.mu.Unlock()
	_, err = f.app.Generate(ctx, other, riceAndBeans())
	assert.NoError(t, err, "sessions of other owners are independent")

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1.0, counterValue(t, f.prom, "ecochef_busy_rejections_total", ""))
}

func TestRecalculate(t *testing.T) {
	ctx := context.Background()

	t.Run("appends checked items to the original ingredients", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)
		_, err = f.app.ToggleItem(alice, selection.Key{CategoryIndex: 1, ItemIndex: 0, Text: "onion"})
		require.NoError(t, err)
		_, err = f.app.ToggleItem(alice, selection.Key{CategoryIndex: 1, ItemIndex: 2, Text: "lime"})
		require.NoError(t, err)

		view, err := f.app.Recalculate(ctx, alice)
		require.NoError(t, err)

		req := f.gen.last()
		assert.Equal(t, "rice, beans, onion, lime", req.IngredientsText)
		assert.Equal(t, 3, req.Days)
		assert.Equal(t, locale.Spanish, req.Language)
		assert.Empty(t, view.Checked)

		d, err := f.app.Draft(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, "rice, beans", d.IngredientsText)
	})

	t.Run("keeps the separator when nothing is checked", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)

		_, err = f.app.Recalculate(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, "rice, beans, ", f.gen.last().IngredientsText)
	})

	t.Run("needs a plan", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.Recalculate(ctx, alice)
		assert.ErrorIs(t, err, ErrNoPlan)
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.app.Generate(ctx, alice, riceAndBeans())
	require.NoError(t, err)

	f.app.Reset(alice)
	_, err = f.app.CurrentPlan(ctx, alice)
	assert.ErrorIs(t, err, ErrNoPlan)
}

func TestToggleItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.app.ToggleItem(alice, selection.Key{Text: "rice"})
	assert.ErrorIs(t, err, ErrNoPlan)

	_, err = f.app.Generate(ctx, alice, riceAndBeans())
	require.NoError(t, err)

	k := selection.Key{CategoryIndex: 0, ItemIndex: 0, Text: "rice"}
	on, err := f.app.ToggleItem(alice, k)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = f.app.ToggleItem(alice, k)
	require.NoError(t, err)
	assert.False(t, on)

	_, err = f.app.ToggleItem(alice, selection.Key{CategoryIndex: 0, ItemIndex: 0, Text: "beans"})
	assert.ErrorIs(t, err, selection.ErrUnknownItem)
}

func TestSaveSelection(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps only checked items per category", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)
		for _, k := range []selection.Key{
			{CategoryIndex: 0, ItemIndex: 0, Text: "rice"},
			{CategoryIndex: 1, ItemIndex: 2, Text: "lime"},
		} {
			_, err := f.app.ToggleItem(alice, k)
			require.NoError(t, err)
		}

		item, err := f.app.SaveSelection(ctx, alice)
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, []shopping.Category{
			{Category: "Grains", Items: []string{"rice"}},
			{Category: "Produce", Items: []string{"lime"}},
		}, item.List)
		assert.Empty(t, item.CheckedItems)
		assert.Equal(t, "Semana del 4 de marzo", item.WeekLabel)

		groups, err := f.app.History(ctx, alice, locale.English)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, "Week of March 4", groups[0].Label)
		assert.Equal(t, item.ID, groups[0].Items[0].ID)
	})

	t.Run("nothing checked writes nothing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)

		item, err := f.app.SaveSelection(ctx, alice)
		require.NoError(t, err)
		assert.Nil(t, item)

		_, ok, err := storage.Scoped(f.store, alice.Owner()).Read(ctx, storage.KeyShoppingHistory)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("newest entry first", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)
		_, err = f.app.ToggleItem(alice, selection.Key{CategoryIndex: 0, ItemIndex: 0, Text: "rice"})
		require.NoError(t, err)
		first, err := f.app.SaveSelection(ctx, alice)
		require.NoError(t, err)
		second, err := f.app.SaveSelection(ctx, alice)
		require.NoError(t, err)

		groups, err := f.app.History(ctx, alice, locale.Spanish)
		require.NoError(t, err)
		require.Len(t, groups[0].Items, 2)
		assert.Equal(t, second.ID, groups[0].Items[0].ID)
		assert.Equal(t, first.ID, groups[0].Items[1].ID)
	})
}

func TestHistoryEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.app.Generate(ctx, alice, riceAndBeans())
	require.NoError(t, err)
	_, err = f.app.ToggleItem(alice, selection.Key{CategoryIndex: 1, ItemIndex: 1, Text: "garlic"})
	require.NoError(t, err)
	saved, err := f.app.SaveSelection(ctx, alice)
	require.NoError(t, err)

	ref := shopping.ItemRef{CategoryIndex: 0, ItemIndex: 0, Text: "garlic"}
	item, err := f.app.ToggleHistoryItem(ctx, alice, saved.ID, ref)
	require.NoError(t, err)
	assert.True(t, item.IsChecked(ref))

	_, err = f.app.ToggleHistoryItem(ctx, alice, saved.ID, shopping.ItemRef{CategoryIndex: 3, Text: "garlic"})
	assert.ErrorIs(t, err, shopping.ErrNotFound)

	item, err = f.app.AddHistoryExtra(ctx, alice, saved.ID, "  ", locale.Spanish)
	require.NoError(t, err)
	assert.Len(t, item.List, 1)

	item, err = f.app.AddHistoryExtra(ctx, alice, saved.ID, "coffee", locale.Spanish)
	require.NoError(t, err)
	require.Len(t, item.List, 2)
	assert.Equal(t, shopping.Category{Category: "Agregados", Tag: shopping.ExtrasTag, Items: []string{"coffee"}}, item.List[1])

	groups, err := f.app.History(ctx, alice, locale.Spanish)
	require.NoError(t, err)
	persisted := groups[0].Items[0]
	assert.True(t, persisted.IsChecked(ref))
	assert.Equal(t, 2, persisted.ItemCount())

	require.NoError(t, f.app.DeleteHistoryItem(ctx, alice, saved.ID))
	assert.ErrorIs(t, f.app.DeleteHistoryItem(ctx, alice, saved.ID), shopping.ErrNotFound)
	_, err = f.app.AddHistoryExtra(ctx, alice, saved.ID, "tea", locale.Spanish)
	assert.ErrorIs(t, err, shopping.ErrNotFound)
}

func TestSavedRecipes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.app.Generate(ctx, alice, riceAndBeans())
	require.NoError(t, err)

	on, err := f.app.ToggleSavedRecipe(ctx, alice, "Bean soup")
	require.NoError(t, err)
	assert.True(t, on)

	view, err := f.app.CurrentPlan(ctx, alice)
	require.NoError(t, err)
	assert.True(t, view.Saved["Bean soup"])
	assert.False(t, view.Saved["Rice and beans bowl"])

	groups, err := f.app.SavedRecipes(ctx, alice, locale.English)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Week of March 4", groups[0].Label)
	assert.Equal(t, []string{"Sweat the onion", "Add beans and water", "Simmer 30 min"}, groups[0].Recipes[0].Steps)

	_, err = f.app.ToggleSavedRecipe(ctx, alice, "Pancakes")
	assert.ErrorIs(t, err, recipe.ErrNotFound)

	f.app.Reset(alice)
	on, err = f.app.ToggleSavedRecipe(ctx, alice, "Bean soup")
	require.NoError(t, err, "a saved recipe can be removed without a plan")
	assert.False(t, on)

	assert.ErrorIs(t, f.app.DeleteSavedRecipe(ctx, alice, "Bean soup"), recipe.ErrNotFound)
}

func TestDeleteSavedRecipe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.app.Generate(ctx, alice, riceAndBeans())
	require.NoError(t, err)
	_, err = f.app.ToggleSavedRecipe(ctx, alice, "Rice and beans bowl")
	require.NoError(t, err)

	require.NoError(t, f.app.DeleteSavedRecipe(ctx, alice, "Rice and beans bowl"))
	groups, err := f.app.SavedRecipes(ctx, alice, locale.Spanish)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGuestAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	guest := auth.Guest{SessionID: "s1"}

	_, err := f.app.Generate(ctx, guest, riceAndBeans())
	require.NoError(t, err, "guests may generate")

	_, err = f.app.ToggleItem(guest, selection.Key{CategoryIndex: 0, ItemIndex: 0, Text: "rice"})
	assert.ErrorIs(t, err, auth.ErrSignInRequired)
	_, err = f.app.Recalculate(ctx, guest)
	assert.ErrorIs(t, err, auth.ErrSignInRequired)
	_, err = f.app.SaveSelection(ctx, guest)
	assert.ErrorIs(t, err, auth.ErrSignInRequired)
	_, err = f.app.History(ctx, guest, locale.Spanish)
	assert.ErrorIs(t, err, auth.ErrSignInRequired)
	_, err = f.app.ToggleSavedRecipe(ctx, guest, "Bean soup")
	assert.ErrorIs(t, err, auth.ErrSignInRequired)
	_, err = f.app.SavedRecipes(ctx, guest, locale.Spanish)
	assert.ErrorIs(t, err, auth.ErrSignInRequired)
	_, err = f.app.PublishRecipe(ctx, guest, "Bean soup")
	assert.ErrorIs(t, err, auth.ErrSignInRequired)

	d, err := f.app.Draft(ctx, guest)
	require.NoError(t, err)
	assert.Equal(t, "rice, beans", d.IngredientsText)
	_, ok, err := f.store.Read(ctx, guest.Owner()+":"+storage.KeyDraft)
	require.NoError(t, err)
	assert.False(t, ok, "guest drafts are not persisted")
}

func TestDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.app.Draft(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, Draft{Days: DefaultDays, Language: locale.Spanish}, d)

	err = f.app.SaveDraft(ctx, alice, Draft{Days: 9, Language: "fr"})
	var ve *planner.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"days", "language"}, ve.Fields)

	want := Draft{IngredientsText: "", Days: 2, DietaryRestrictions: "no nuts", Language: locale.Portuguese}
	require.NoError(t, f.app.SaveDraft(ctx, alice, want))
	d, err = f.app.Draft(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, want, d)
	assert.Equal(t, planner.BuildRequest("", 2, "no nuts", locale.Portuguese), d.Request())
}

func TestPublishRecipe(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.app.PublishRecipe(ctx, alice, "Bean soup")
		assert.ErrorIs(t, err, ghost.ErrNotConfigured)
	})

	t.Run("posts a saved recipe as draft", func(t *testing.T) {
		f := newFixture(t)
		pub := &fakePublisher{}
		f.app.publisher = pub
		_, err := f.app.Generate(ctx, alice, riceAndBeans())
		require.NoError(t, err)

		_, err = f.app.PublishRecipe(ctx, alice, "Bean soup")
		assert.ErrorIs(t, err, recipe.ErrNotFound)

		_, err = f.app.ToggleSavedRecipe(ctx, alice, "Bean soup")
		require.NoError(t, err)
		post, err := f.app.PublishRecipe(ctx, alice, "Bean soup")
		require.NoError(t, err)
		assert.Equal(t, "post-1", post.ID)
		assert.Equal(t, "Bean soup", pub.title)
		assert.Contains(t, pub.html, "Sweat the onion")
		assert.False(t, pub.publish)
	})
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	now := wednesday
	f := newFixture(t)
	f.app.now = func() time.Time { return now }

	_, err := f.app.Generate(ctx, alice, riceAndBeans())
	require.NoError(t, err)
	assert.Equal(t, 0, f.app.Sweep(time.Hour))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, f.app.Sweep(time.Hour))
	_, err = f.app.CurrentPlan(ctx, alice)
	assert.ErrorIs(t, err, ErrNoPlan)

	t.Run("drops guest drafts", func(t *testing.T) {
		guest := auth.Guest{SessionID: "s2"}
		want := Draft{IngredientsText: "lentils", Days: 2, Language: locale.English}
		require.NoError(t, f.app.SaveDraft(ctx, guest, want))
		require.NoError(t, f.app.SaveDraft(ctx, alice, want))

		got, err := f.app.Draft(ctx, guest)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		now = now.Add(2 * time.Hour)
		assert.Equal(t, 1, f.app.Sweep(time.Hour))

		got, err = f.app.Draft(ctx, guest)
		require.NoError(t, err)
		assert.Equal(t, defaultDraft(), got)

		got, err = f.app.Draft(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, want, got, "signed-in drafts survive in the store")
	})
}

func TestPlanGeneration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rice := selection.Key{CategoryIndex: 0, ItemIndex: 0, Text: "rice"}

	first, err := f.app.Generate(ctx, alice, riceAndBeans())
	require.NoError(t, err)
	assert.NotZero(t, first.Generation)

	second, err := f.app.Generate(ctx, alice, riceAndBeans())
	require.NoError(t, err)
	assert.Greater(t, second.Generation, first.Generation)

	_, err = f.app.ToggleItemIn(alice, first.Generation, rice)
	assert.ErrorIs(t, err, ErrStalePlan)
	_, err = f.app.ToggleItemIn(auth.Guest{SessionID: "s1"}, first.Generation, rice)
	assert.ErrorIs(t, err, auth.ErrSignInRequired)

	checked, err := f.app.ToggleItemIn(alice, second.Generation, rice)
	require.NoError(t, err)
	assert.True(t, checked)

	bob := auth.Identity{UserID: "bob"}
	other, err := f.app.Generate(ctx, bob, riceAndBeans())
	require.NoError(t, err)
	assert.NotEqual(t, second.Generation, other.Generation, "generations are unique across sessions")

	f.app.Reset(alice)
	_, err = f.app.ToggleItemIn(alice, second.Generation, rice)
	assert.ErrorIs(t, err, ErrNoPlan)
}
