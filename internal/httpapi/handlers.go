package httpapi

import (
	"net/http"
	"net/url"

	"ecochef/internal/app"
	"ecochef/internal/locale"
	"ecochef/internal/metrics"
	"ecochef/internal/planner"
	"ecochef/internal/selection"
	"ecochef/internal/shopping"

	"github.com/go-chi/chi/v5"
)

type planBody struct {
	IngredientsText     string          `json:"ingredientsText"`
	Days                int             `json:"days"`
	DietaryRestrictions string          `json:"dietaryRestrictions"`
	Language            locale.Language `json:"language"`
}

// toggleBody addresses a shopping list item either by its fields or by the
// "<category>-<item>--<text>" key.
type toggleBody struct {
	Key           string `json:"key"`
	CategoryIndex int    `json:"categoryIndex"`
	ItemIndex     int    `json:"itemIndex"`
	Text          string `json:"text"`
	// Generation, when set, is the plan the key was taken from.
	Generation uint64 `json:"generation"`
}

func (b toggleBody) selectionKey() (selection.Key, error) {
	if b.Key != "" {
		k, err := selection.ParseKey(b.Key)
		if err != nil {
			return selection.Key{}, &planner.ValidationError{Fields: []string{"key"}}
		}
		return k, nil
	}
	return selection.Key{CategoryIndex: b.CategoryIndex, ItemIndex: b.ItemIndex, Text: b.Text}, nil
}

type healthBody struct {
	Status string            `json:"status"`
	System metrics.SysHealth `json:"system"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{Status: "ok", System: metrics.GetSysHealth(s.dataPath, s.started)})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body planBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Language == "" {
		body.Language = languageOf(r)
	}
	if body.Days == 0 {
		body.Days = app.DefaultDays
	}
	req := planner.BuildRequest(body.IngredientsText, body.Days, body.DietaryRestrictions, body.Language)
	view, err := s.app.Generate(r.Context(), principalFrom(r), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCurrentPlan(w http.ResponseWriter, r *http.Request) {
	view, err := s.app.CurrentPlan(r.Context(), principalFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.app.Reset(principalFrom(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	view, err := s.app.Recalculate(r.Context(), principalFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	var body toggleBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	k, err := body.selectionKey()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	checked, err := s.app.ToggleItemIn(principalFrom(r), body.Generation, k)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": k.String(), "checked": checked})
}

func (s *Server) handleSaveSelection(w http.ResponseWriter, r *http.Request) {
	item, err := s.app.SaveSelection(r.Context(), principalFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	groups, err := s.app.History(r.Context(), principalFrom(r), languageOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if groups == nil {
		groups = []shopping.WeekGroup{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleToggleHistoryItem(w http.ResponseWriter, r *http.Request) {
	var ref shopping.ItemRef
	if err := decodeJSON(r, &ref); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.app.ToggleHistoryItem(r.Context(), principalFrom(r), chi.URLParam(r, "id"), ref)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleAddHistoryExtra(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.app.AddHistoryExtra(r.Context(), principalFrom(r), chi.URLParam(r, "id"), body.Text, languageOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteHistoryItem(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteHistoryItem(r.Context(), principalFrom(r), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSavedRecipes(w http.ResponseWriter, r *http.Request) {
	groups, err := s.app.SavedRecipes(r.Context(), principalFrom(r), languageOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleToggleRecipe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.app.ToggleSavedRecipe(r.Context(), principalFrom(r), body.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"title": body.Title, "saved": saved})
}

func titleParam(r *http.Request) (string, error) {
	title, err := url.PathUnescape(chi.URLParam(r, "title"))
	if err != nil {
		return "", &planner.ValidationError{Fields: []string{"title"}}
	}
	return title, nil
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	title, err := titleParam(r)
	if err == nil {
		err = s.app.DeleteSavedRecipe(r.Context(), principalFrom(r), title)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePublishRecipe(w http.ResponseWriter, r *http.Request) {
	title, err := titleParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	post, err := s.app.PublishRecipe(r.Context(), principalFrom(r), title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.app.Draft(r.Context(), principalFrom(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var d app.Draft
	if err := decodeJSON(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.app.SaveDraft(r.Context(), principalFrom(r), d); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
