package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"ecochef/internal/app"
	"ecochef/internal/auth"
	"ecochef/internal/metrics"
	"ecochef/internal/planner"
	"ecochef/internal/shared"
	"ecochef/internal/shopping"
	"ecochef/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type stubPlanner struct {
	plan *planner.PlanResponse
	err  error
	last planner.PlanRequest
}

func (s *stubPlanner) RequestPlan(_ context.Context, req planner.PlanRequest) (*planner.PlanResponse, shared.AgentMeta, error) {
	s.last = req
	if err := req.Validate(); err != nil {
		return nil, shared.AgentMeta{}, err
	}
	if s.err != nil {
		return nil, shared.AgentMeta{}, s.err
	}
	return s.plan, shared.AgentMeta{AgentName: "EcoChef"}, nil
}

type env struct {
	srv     *Server
	planner *stubPlanner
	prom    *metrics.Collector
	token   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	data, err := os.ReadFile("../planner/testdata/plan_response.json")
	require.NoError(t, err)
	plan, err := planner.ParseResponse(data)
	require.NoError(t, err)

	sp := &stubPlanner{plan: plan}
	prom := metrics.NewCollector()
	a := app.NewApp(app.Deps{
		Planner:  sp,
		Store:    storage.NewMemoryStore(),
		Metrics:  prom,
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC) },
	})
	token, err := auth.NewIssuer(secret, time.Hour).Issue(auth.Identity{UserID: "alice"})
	require.NoError(t, err)

	return &env{
		srv: NewServer(Options{
			App:            a,
			Verifier:       auth.NewVerifier(secret),
			Metrics:        prom,
			AllowedOrigins: []string{"http://localhost:5173"},
			DataPath:       t.TempDir(),
		}),
		planner: sp,
		prom:    prom,
		token:   token,
	}
}

func (e *env) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func (e *env) authed(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	return e.do(t, method, path, body, map[string]string{"Authorization": "Bearer " + e.token})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[healthBody](t, rec)
	assert.Equal(t, "ok", body.Status)
	assert.Positive(t, body.System.Goroutines)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodGet, "/health", "", nil)
	rec := e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ecochef_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestShoppingFlow(t *testing.T) {
	e := newEnv(t)

	rec := e.authed(t, http.MethodPost, "/api/plans", `{"ingredientsText":"rice, beans","days":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[app.PlanView](t, rec)
	assert.Len(t, view.Plan.ShoppingList, 2)
	assert.Equal(t, "es", string(e.planner.last.Language), "language defaults to Spanish")

	rec = e.authed(t, http.MethodPost, "/api/plans/current/checked", `{"categoryIndex":0,"itemIndex":0,"text":"rice"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode[map[string]any](t, rec)["checked"])

	rec = e.authed(t, http.MethodPost, "/api/plans/current/checked", `{"key":"1-2--lime"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.authed(t, http.MethodPost, "/api/plans/current/checked", `{"categoryIndex":1,"itemIndex":2,"text":"rice"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	stale := fmt.Sprintf(`{"categoryIndex":1,"itemIndex":0,"text":"onion","generation":%d}`, view.Generation+1)
	rec = e.authed(t, http.MethodPost, "/api/plans/current/checked", stale)
	assert.Equal(t, http.StatusConflict, rec.Code, "keys from another plan are rejected")

	rec = e.authed(t, http.MethodPost, "/api/history", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[shopping.HistoryItem](t, rec)
	assert.Equal(t, []shopping.Category{
		{Category: "Grains", Items: []string{"rice"}},
		{Category: "Produce", Items: []string{"lime"}},
	}, item.List)

	rec = e.authed(t, http.MethodPost, "/api/history/"+item.ID+"/extras?lang=en", `{"text":"coffee"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	item = decode[shopping.HistoryItem](t, rec)
	assert.Equal(t, "Extras", item.List[2].Category)

	rec = e.authed(t, http.MethodPost, "/api/history/"+item.ID+"/checked", `{"categoryIndex":2,"itemIndex":0,"text":"coffee"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/history", "", map[string]string{
		"Authorization":   "Bearer " + e.token,
		"Accept-Language": "en-US,en;q=0.9",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	groups := decode[[]shopping.WeekGroup](t, rec)
	require.Len(t, groups, 1)
	assert.Equal(t, "Week of March 4", groups[0].Label)

	rec = e.authed(t, http.MethodPost, "/api/plans/current/recalculate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "rice, beans, rice, lime", e.planner.last.IngredientsText)

	rec = e.authed(t, http.MethodPost, "/api/history", "")
	assert.Equal(t, http.StatusNoContent, rec.Code, "fresh plan has nothing checked")

	rec = e.authed(t, http.MethodDelete, "/api/history/"+item.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.authed(t, http.MethodDelete, "/api/history/"+item.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.authed(t, http.MethodDelete, "/api/plans/current", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.authed(t, http.MethodGet, "/api/plans/current", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecipes(t *testing.T) {
	e := newEnv(t)
	rec := e.authed(t, http.MethodPost, "/api/plans", `{"ingredientsText":"rice, beans","days":3,"language":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.authed(t, http.MethodPost, "/api/recipes/toggle", `{"title":"Bean soup"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode[map[string]any](t, rec)["saved"])

	rec = e.authed(t, http.MethodGet, "/api/plans/current", "")
	view := decode[app.PlanView](t, rec)
	assert.True(t, view.Saved["Bean soup"])

	rec = e.authed(t, http.MethodGet, "/api/recipes?lang=es", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Semana del 4 de marzo")

	rec = e.authed(t, http.MethodPost, "/api/recipes/Bean%20soup/publish", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	rec = e.authed(t, http.MethodDelete, "/api/recipes/Bean%20soup", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.authed(t, http.MethodDelete, "/api/recipes/Bean%20soup", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("blank ingredients", func(t *testing.T) {
		e := newEnv(t)
		rec := e.authed(t, http.MethodPost, "/api/plans", `{"ingredientsText":"  ","days":3}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"ingredientsText"}, decode[errorBody](t, rec).Fields)
	})

	t.Run("malformed body", func(t *testing.T) {
		e := newEnv(t)
		rec := e.authed(t, http.MethodPost, "/api/plans", `{"ingredientsText":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("generation failure shows a generic localized message", func(t *testing.T) {
		e := newEnv(t)
		e.planner.err = &planner.GenerationError{Reason: planner.ReasonTransport, Err: errors.New("dial tcp: refused")}
		rec := e.do(t, http.MethodPost, "/api/plans?lang=en", `{"ingredientsText":"rice"}`, map[string]string{
			"Authorization": "Bearer " + e.token,
		})
		require.Equal(t, http.StatusBadGateway, rec.Code)
		msg := decode[errorBody](t, rec).Error
		assert.Equal(t, "Error connecting to EcoChef. Please try again.", msg)
		assert.NotContains(t, msg, "dial tcp")
	})
}

func TestAuthentication(t *testing.T) {
	e := newEnv(t)

	t.Run("invalid token", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/draft", "", map[string]string{"Authorization": "Bearer nope"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid credentials", decode[errorBody](t, rec).Error)
	})

	t.Run("guests get a session id and may generate", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/plans", `{"ingredientsText":"rice, beans"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		sid := rec.Header().Get(SessionHeader)
		require.NotEmpty(t, sid)

		headers := map[string]string{SessionHeader: sid, "Accept-Language": "en"}
		rec = e.do(t, http.MethodGet, "/api/plans/current", "", headers)
		assert.Equal(t, http.StatusOK, rec.Code, "the same session sees its plan")
		assert.Equal(t, sid, rec.Header().Get(SessionHeader))

		rec = e.do(t, http.MethodPost, "/api/plans/current/checked", `{"key":"0-0--rice"}`, headers)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Sign in to use this feature.", decode[errorBody](t, rec).Error)

		rec = e.do(t, http.MethodGet, "/api/history", "", headers)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown session ids are replaced", func(t *testing.T) {
		rec := e.do(t, http.MethodGet, "/api/draft", "", map[string]string{SessionHeader: "not-a-uuid"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEqual(t, "not-a-uuid", rec.Header().Get(SessionHeader))
	})
}

func TestDraft(t *testing.T) {
	e := newEnv(t)

	rec := e.authed(t, http.MethodGet, "/api/draft", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.DefaultDays, decode[app.Draft](t, rec).Days)

	rec = e.authed(t, http.MethodPut, "/api/draft", `{"ingredientsText":"eggs","days":8,"language":"en"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"days"}, decode[errorBody](t, rec).Fields)

	rec = e.authed(t, http.MethodPut, "/api/draft", `{"ingredientsText":"eggs","days":2,"language":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.authed(t, http.MethodGet, "/api/draft", "")
	assert.True(t, strings.Contains(rec.Body.String(), `"ingredientsText":"eggs"`))
}

func TestCORS(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, http.MethodOptions, "/api/plans", "", map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
