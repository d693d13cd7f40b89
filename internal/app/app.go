// Package app is the single state object behind every front end: it owns the
// current plan of each session, its selection, and the persisted collections.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"ecochef/internal/ghost"
	"ecochef/internal/metrics"
	"ecochef/internal/planner"
	"ecochef/internal/recipe"
	"ecochef/internal/selection"
	"ecochef/internal/shared"
	"ecochef/internal/shopping"
	"ecochef/internal/storage"

	"go.uber.org/zap"
)

var (
	// ErrBusy is returned when a generation is already running for the session.
	ErrBusy = errors.New("a plan is already being generated")
	// ErrNoPlan is returned by operations that need a current plan.
	ErrNoPlan = errors.New("no plan has been generated yet")
	// ErrStalePlan is returned when a front end acts on a plan generation
	// that has since been replaced or reset.
	ErrStalePlan = errors.New("the plan has changed")
)

// PlanGenerator produces plans. *planner.Planner is the production one.
type PlanGenerator interface {
	RequestPlan(ctx context.Context, req planner.PlanRequest) (*planner.PlanResponse, shared.AgentMeta, error)
}

// UsageRecorder persists token usage of a generation.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Publisher posts rendered recipes to a blog.
type Publisher interface {
	CreatePost(ctx context.Context, title, html string, publish bool) (*ghost.Post, error)
}

// Deps are the collaborators of an App. Usage, Metrics and Publisher are
// optional.
type Deps struct {
	Planner   PlanGenerator
	Store     storage.Store
	Usage     UsageRecorder
	Metrics   *metrics.Collector
	Publisher Publisher
	Location  *time.Location
	Logger    *zap.Logger
	Now       func() time.Time
}

// session is the in-memory state of one owner. Guests keep their draft here
// so it goes away with the session.
type session struct {
	mu         sync.Mutex
	busy       bool
	plan       *planner.PlanResponse
	generation uint64
	request    planner.PlanRequest
	engine     *selection.Engine
	draft      *Draft
	lastSeen   time.Time
}

// App holds the application's dependencies and the live sessions.
type App struct {
	planner   PlanGenerator
	store     storage.Store
	history   *shopping.Repository
	recipes   *recipe.Repository
	usage     UsageRecorder
	prom      *metrics.Collector
	publisher Publisher
	loc       *time.Location
	log       *zap.Logger
	now       func() time.Time

	// planSeq numbers plans across all sessions.
	planSeq atomic.Uint64

	mu       sync.Mutex
	sessions map[string]*session
	owners   map[string]*sync.Mutex
}

// NewApp creates and initializes a new App instance.
func NewApp(d Deps) *App {
	a := &App{
		planner:   d.Planner,
		store:     d.Store,
		history:   shopping.NewRepository(d.Store),
		recipes:   recipe.NewRepository(d.Store),
		usage:     d.Usage,
		prom:      d.Metrics,
		publisher: d.Publisher,
		loc:       d.Location,
		log:       d.Logger,
		now:       d.Now,
		sessions:  make(map[string]*session),
		owners:    make(map[string]*sync.Mutex),
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	// Start above anything a previous process handed out.
	if ms := a.now().UnixMilli(); ms > 0 {
		a.planSeq.Store(uint64(ms))
	}
	return a
}

func (a *App) session(owner string) *session {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[owner]
	if !ok {
		s = &session{}
		a.sessions[owner] = s
	}
	s.lastSeen = a.now()
	return s
}

// lockOwner serialises read-modify-write cycles on one owner's collections.
func (a *App) lockOwner(owner string) func() {
	a.mu.Lock()
	m, ok := a.owners[owner]
	if !ok {
		m = &sync.Mutex{}
		a.owners[owner] = m
	}
	a.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// Sweep forgets sessions idle for longer than maxIdle that are not
// generating. It returns how many were dropped.
func (a *App) Sweep(maxIdle time.Duration) int {
	cutoff := a.now().Add(-maxIdle)
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for owner, s := range a.sessions {
		s.mu.Lock()
		idle := !s.busy && s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(a.sessions, owner)
			n++
		}
	}
	return n
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (a *App) RunJanitor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Sweep(maxIdle); n > 0 {
				a.log.Debug("dropped idle sessions", zap.Int("count", n))
			}
		}
	}
}

func (a *App) observe(ctx context.Context, meta shared.AgentMeta, err error) {
	outcome := "success"
	var ve *planner.ValidationError
	var ge *planner.GenerationError
	switch {
	case errors.As(err, &ve):
		outcome = "invalid"
	case errors.As(err, &ge):
		outcome = ge.Reason
	case err != nil:
		outcome = "error"
	}
	if a.prom != nil {
		a.prom.ObserveGeneration(meta, outcome)
	}
	if a.usage != nil && !meta.Empty() {
		if rerr := a.usage.RecordMeta(ctx, meta); rerr != nil {
			a.log.Warn("failed to record usage", zap.Error(rerr))
		}
	}
}
