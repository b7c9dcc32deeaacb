// internal/httpserver/routes_daily.go
//
// Daily board support.
//   - GET /daily reports today's date key (UTC).
//   - POST /session/new with {"mode":"daily"} reseeds the player's engine
//     from daily.Seed(today, DAILY_SALT), so every player draws the same
//     boards that day.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/cardmatch/internal/daily"
)

type dailyRes struct {
	Date string `json:"date"`
}

func (s *Server) mountDaily(r chi.Router) {
	r.Get("/daily", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dailyRes{Date: daily.DateKey(s.now())})
	})
}

// dailySeed is today's shared shuffle seed.
func (s *Server) dailySeed() int64 {
	return daily.Seed(s.now(), s.dailySalt)
}
