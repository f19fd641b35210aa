package http

import (
	"net/http"

	"bilancio/internal/log"
	"bilancio/internal/services"
)

func (s *Server) buildDashboard(w http.ResponseWriter, r *http.Request) (services.Dashboard, bool) {
	q := ParseDashboardQuery(r.URL.Query())
	d, err := s.dashboard.Build(r.Context(), userID(r), q)
	if err != nil {
		s.events.LogError(r.Context(), "Failed to build dashboard", err, log.OpRead,
			log.NewFields().WithUser(userID(r)))
		if wantsJSON(r) {
			writeJSONError(w, http.StatusInternalServerError, "failed to load data")
		} else {
			InternalServerError("Could not load your data. Please retry.").Write(w)
		}
		return services.Dashboard{}, false
	}
	return d, true
}

// handleIndex renders the full page with the dashboard inlined.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	d, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "index.html", pageView{
		Hosted:    s.Hosted(),
		Dashboard: newDashboardView(d),
	})
}

// handleDashboard renders only the dashboard partial for HTMX swaps.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "dashboard", newDashboardView(d))
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	r.Header.Set("Accept", "application/json")
	d, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSummaryJSON(d))
}

func (s *Server) handleAPITrend(w http.ResponseWriter, r *http.Request) {
	r.Header.Set("Accept", "application/json")
	d, ok := s.buildDashboard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newTrendJSON(d.Period, d.Trend))
}
