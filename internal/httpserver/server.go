// internal/httpserver/server.go
//
// HTTP server wiring for the card-match backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/leaderboard", "/daily".
//   - Session endpoints (optional auth): mounted under /session.
//   - Auth endpoints: /auth/*.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Every player (account or anonymous cookie) owns one engine in the
//     session registry and one slot in the Save Store.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cardmatch/internal/game"
	"github.com/robalobadob/cardmatch/internal/results"
	"github.com/robalobadob/cardmatch/internal/store"
	"github.com/robalobadob/cardmatch/internal/symbols"
)

// Options configures a Server. Zero values fall back to environment
// variables or built-in defaults.
type Options struct {
	Store     store.Store
	DB        *sql.DB
	Catalog   *symbols.Catalog
	Config    game.Config
	DailySalt string
	JWTSecret string
	// Now is the clock used for daily seeds.
	Now func() time.Time
}

// Server bundles router, session registry, and persistence handles.
type Server struct {
	r        *chi.Mux
	store    store.Store
	db       *sql.DB
	results  *results.Store
	cat      *symbols.Catalog
	cfg      game.Config
	sessions *registry

	dailySalt string
	jwtSecret string
	now       func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		store:     opts.Store,
		db:        opts.DB,
		cat:       opts.Catalog,
		cfg:       opts.Config,
		sessions:  newRegistry(),
		dailySalt: opts.DailySalt,
		jwtSecret: opts.JWTSecret,
		now:       opts.Now,
	}
	if s.store == nil {
		s.store = store.NewMemoryStore()
	}
	if s.cat == nil {
		cat, err := symbols.Default()
		if err != nil {
			log.Fatal().Err(err).Msg("embedded symbol alphabets")
		}
		s.cat = cat
	}
	if s.db != nil {
		s.results = results.NewStore(s.db)
	}
	if s.cfg == (game.Config{}) {
		s.cfg = game.DefaultConfig()
	}
	if s.dailySalt == "" {
		s.dailySalt = getEnv("DAILY_SALT", "local_dev_salt")
	}
	if s.jwtSecret == "" {
		s.jwtSecret = getEnv("JWT_SECRET", "dev_secret_change_me")
	}
	if s.now == nil {
		s.now = time.Now
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"cardmatch","endpoints":["/health","/session","POST /session/{resume,new,restart,next,reset,pick}","/leaderboard","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Session endpoints: OPTIONAL AUTH (guests play under an anonymous cookie)
	s.r.With(s.withOptionalAuth()).Route("/session", s.mountSession)

	s.r.Get("/leaderboard", s.handleLeaderboard)
	s.mountDaily(s.r)
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ---------------------------- leaderboard ----------------------------------

type lbRes struct {
	Top []results.LBRow `json:"top"`
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeJSON(w, http.StatusOK, lbRes{Top: []results.LBRow{}})
		return
	}
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	rows, err := s.results.Leaderboard(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if rows == nil {
		rows = []results.LBRow{}
	}
	writeJSON(w, http.StatusOK, lbRes{Top: rows})
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
