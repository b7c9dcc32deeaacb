// internal/httpserver/sessions.go
//
// Session routes: the adapter between HTTP and the match session engine.
//
//   GET  /session          current state view
//   POST /session/resume   StartOrResume
//   POST /session/new      StartNew ({"mode":"daily"} seeds from today's date)
//   POST /session/restart  RestartCurrentLevel
//   POST /session/next     AdvanceToNextLevel
//   POST /session/reset    ResetEntireGame
//   POST /session/pick     Pick ({"index":n})
//   GET  /session/history  the player's recently completed levels
//
// Each command answers {state, events, outcome?, warning?}. Events are the
// engine's drained outbound queue for that command.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cardmatch/internal/board"
	"github.com/robalobadob/cardmatch/internal/game"
	"github.com/robalobadob/cardmatch/internal/results"
	"github.com/robalobadob/cardmatch/internal/store"
)

// sessionEntry serializes all commands for one player.
type sessionEntry struct {
	mu  sync.Mutex
	eng *game.Engine

	// Guarded by mu. A retired entry is no longer in the registry and its
	// engine must not run commands.
	retired  bool
	lastUsed time.Time
}

// registry maps player IDs to their engines.
type registry struct {
	mu sync.Mutex
	m  map[string]*sessionEntry
}

func newRegistry() *registry {
	return &registry{m: make(map[string]*sessionEntry)}
}

func (g *registry) get(playerID string, build func(string) *game.Engine) *sessionEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e, ok := g.m[playerID]; ok {
		return e
	}
	e := &sessionEntry{eng: build(playerID)}
	g.m[playerID] = e
	return e
}

// acquire returns playerID's live entry, locked. The caller unlocks mu.
func (g *registry) acquire(playerID string, build func(string) *game.Engine) *sessionEntry {
	for {
		e := g.get(playerID, build)
		e.mu.Lock()
		if !e.retired {
			e.lastUsed = time.Now()
			return e
		}
		e.mu.Unlock()
	}
}

// hold locks the entries of every id, in order, so no command can run for
// those players until release. release retires the entries; the next
// command for each player builds a fresh engine that reloads its save.
func (g *registry) hold(build func(string) *game.Engine, ids ...string) (release func()) {
	held := make([]*sessionEntry, 0, len(ids))
	for _, id := range ids {
		held = append(held, g.acquire(id, build))
	}
	return func() {
		g.mu.Lock()
		for i, e := range held {
			if g.m[ids[i]] == e {
				delete(g.m, ids[i])
			}
			e.retired = true
		}
		g.mu.Unlock()
		for _, e := range held {
			e.mu.Unlock()
		}
	}
}

// evictIdle retires entries last used before cutoff. Busy entries are
// skipped; their saves are already in the Save Store.
func (g *registry) evictIdle(cutoff time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for id, e := range g.m {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			e.retired = true
			delete(g.m, id)
			n++
		}
		e.mu.Unlock()
	}
	return n
}

func (g *registry) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}

// EvictIdleSessions drops in-memory engines unused for longer than idle,
// checking every interval until ctx is done.
func (s *Server) EvictIdleSessions(ctx context.Context, idle, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.evictIdle(time.Now().Add(-idle)); n > 0 {
				log.Debug().Int("evicted", n).Int("live", s.sessions.size()).Msg("idle sessions")
			}
		}
	}
}

// newEngine builds a player's engine over their save slot. Completed levels
// are recorded for the leaderboard.
func (s *Server) newEngine(playerID string) *game.Engine {
	var eng *game.Engine
	eng = game.New(store.Slot(s.store, playerID), s.cat, s.cfg,
		game.WithID(playerID),
		game.WithLogger(log.Logger.With().Str("player", playerID).Logger()),
		game.WithListener(func(ev game.Event) {
			if ev.Kind == game.EventGameEnded && ev.Won {
				s.recordResult(playerID, ev, eng)
			}
		}),
	)
	return eng
}

func (s *Server) recordResult(playerID string, ev game.Event, eng *game.Engine) {
	if s.results == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.results.Record(ctx, results.Result{
		PlayerID:       playerID,
		Level:          ev.Level,
		LevelScore:     ev.Value,
		RemainingTurns: eng.Progress().RemainingTurns,
		TotalScore:     eng.TotalScore(),
	})
	if err != nil {
		log.Warn().Err(err).Str("player", playerID).Msg("record level result")
	}
}

func (s *Server) mountSession(r chi.Router) {
	r.Get("/", s.handleState)
	r.Post("/resume", s.command(func(ctx context.Context, e *game.Engine) (game.Outcome, error) {
		return "", e.StartOrResume(ctx)
	}))
	r.Post("/new", s.handleNew)
	r.Post("/restart", s.command(func(ctx context.Context, e *game.Engine) (game.Outcome, error) {
		return "", e.RestartCurrentLevel(ctx)
	}))
	r.Post("/next", s.command(func(ctx context.Context, e *game.Engine) (game.Outcome, error) {
		return "", e.AdvanceToNextLevel(ctx)
	}))
	r.Post("/reset", s.command(func(ctx context.Context, e *game.Engine) (game.Outcome, error) {
		return "", e.ResetEntireGame(ctx)
	}))
	r.Post("/pick", s.handlePick)
	r.Get("/history", s.handleHistory)
}

// ------------------------------ views --------------------------------------

// cellView hides the symbol of face-down cells.
type cellView struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	Symbol string `json:"symbol,omitempty"`
}

type stateView struct {
	game.View
	Cells []cellView `json:"cells"`
}

func newStateView(v game.View) stateView {
	out := stateView{View: v, Cells: make([]cellView, 0, len(v.Cells))}
	for _, c := range v.Cells {
		cv := cellView{Index: c.Index, Status: c.Status.String()}
		if c.Status != board.FaceDown {
			cv.Symbol = c.Symbol
		}
		out.Cells = append(out.Cells, cv)
	}
	return out
}

type commandRes struct {
	State   stateView    `json:"state"`
	Events  []game.Event `json:"events"`
	Outcome game.Outcome `json:"outcome,omitempty"`
	Warning string       `json:"warning,omitempty"`
}

// ----------------------------- handlers ------------------------------------

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ent := s.sessions.acquire(s.playerID(w, r), s.newEngine)
	v := ent.eng.View()
	ent.mu.Unlock()
	writeJSON(w, http.StatusOK, newStateView(v))
}

type newReq struct {
	Mode string `json:"mode"` // "" | "daily"
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	var req newReq
	// An empty body is a normal game.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	seed := s.cfg.Seed
	switch req.Mode {
	case "", "normal":
	case "daily":
		seed = s.dailySeed()
	default:
		writeError(w, http.StatusBadRequest, "unknown_mode")
		return
	}
	s.command(func(ctx context.Context, e *game.Engine) (game.Outcome, error) {
		e.Reseed(seed)
		return "", e.StartNew(ctx)
	})(w, r)
}

type pickReq struct {
	Index *int `json:"index"`
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var req pickReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Index == nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.command(func(ctx context.Context, e *game.Engine) (game.Outcome, error) {
		return e.Pick(ctx, *req.Index)
	})(w, r)
}

// command runs fn against the caller's engine and maps its error.
func (s *Server) command(fn func(context.Context, *game.Engine) (game.Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := s.playerID(w, r)
		ent := s.sessions.acquire(id, s.newEngine)
		defer ent.mu.Unlock()

		outcome, err := fn(r.Context(), ent.eng)
		events := ent.eng.DrainEvents()
		if events == nil {
			events = []game.Event{}
		}
		res := commandRes{State: newStateView(ent.eng.View()), Events: events, Outcome: outcome}

		var capErr *game.CapacityError
		switch {
		case err == nil:
		case errors.Is(err, game.ErrPersistence), errors.Is(err, game.ErrInvalidPick):
			res.Warning = err.Error()
		case errors.As(err, &capErr):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error": "capacity", "totalCells": capErr.TotalCells, "slots": capErr.Slots,
			})
			return
		case errors.Is(err, game.ErrLevelNotCompleted):
			writeError(w, http.StatusConflict, "level_not_completed")
			return
		default:
			log.Error().Err(err).Str("player", id).Msg("session command")
			writeError(w, http.StatusInternalServerError, "internal")
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type historyRes struct {
	Results []results.Result `json:"results"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	out := historyRes{Results: []results.Result{}}
	if s.results == nil {
		writeJSON(w, http.StatusOK, out)
		return
	}
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	rows, err := s.results.History(r.Context(), s.playerID(w, r), limit)
	if err != nil {
		log.Error().Err(err).Msg("history")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	out.Results = append(out.Results, rows...)
	writeJSON(w, http.StatusOK, out)
}

// playerID is the account ID when authenticated, else the anonymous cookie.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me, _ := r.Context().Value(ctxUserKey{}).(*authUser); me != nil {
		return me.ID
	}
	return s.ensureAnonID(w, r)
}
