package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecochef/internal/app"
	"ecochef/internal/auth"
	"ecochef/internal/ghost"
	"ecochef/internal/planner"
	"ecochef/internal/recipe"
	"ecochef/internal/selection"
	"ecochef/internal/shopping"

	"go.uber.org/zap"
)

type errorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &planner.ValidationError{Fields: []string{"body"}}
	}
	return nil
}

// writeError maps domain errors to status codes. Generation and auth
// failures only ever show a generic message; the cause goes to the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	lang := languageOf(r)

	var (
		ve *planner.ValidationError
		ge *planner.GenerationError
		ae *auth.AuthError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request", Fields: ve.Fields})
	case errors.Is(err, auth.ErrSignInRequired):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: lang.SignInRequired()})
	case errors.As(err, &ae):
		s.log.Warn("authentication failed", zap.Error(err))
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
	case errors.Is(err, app.ErrNoPlan),
		errors.Is(err, shopping.ErrNotFound),
		errors.Is(err, recipe.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, selection.ErrUnknownItem):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, app.ErrBusy),
		errors.Is(err, app.ErrStalePlan):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, ghost.ErrNotConfigured):
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: err.Error()})
	case errors.As(err, &ge):
		s.log.Error("plan generation failed", zap.String("reason", ge.Reason), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorBody{Error: lang.GenerationFailed()})
	default:
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
