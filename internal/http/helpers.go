package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"bilancio/internal/auth"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
)

// formatEuros renders cents the Italian way, e.g. "€ 1.234,56".
func formatEuros(m core.Money) string {
	s := m.Decimal().Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}

	out := "€ " + b.String() + "," + frac
	if m.IsNegative() {
		out = "-" + out
	}
	return out
}

// monthLabel renders "2024-03" as "March 2024".
func monthLabel(k core.PeriodKey) string {
	start, err := k.Start()
	if err != nil {
		return string(k)
	}
	return fmt.Sprintf("%s %d", start.Month(), start.Year())
}

func shortMonthLabel(k core.PeriodKey) string {
	start, err := k.Start()
	if err != nil {
		return string(k)
	}
	return fmt.Sprintf("%s %02d", start.Month().String()[:3], start.Year()%100)
}

func urgencyClass(u ledger.Urgency) string {
	return "urgency-" + u.String()
}

// dueLabel describes DaysLeft in words.
func dueLabel(st ledger.ReminderStatus) string {
	switch d := st.DaysLeft; {
	case d < -1:
		return fmt.Sprintf("%d days overdue", -d)
	case d == -1:
		return "1 day overdue"
	case d == 0:
		return "due today"
	case d == 1:
		return "due tomorrow"
	default:
		return fmt.Sprintf("in %d days", d)
	}
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"euros":      formatEuros,
		"month":      monthLabel,
		"shortMonth": shortMonthLabel,
		"urgency":    urgencyClass,
		"due":        dueLabel,
		"color":      func(c core.Category) string { return c.Color() },
		"json": func(v any) (string, error) {
			b, err := json.Marshal(v)
			return string(b), err
		},
	}
}

// sanitizeInput drops control characters, keeping tabs and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON is true for API clients: a JSON body or a JSON Accept header.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// userID returns the id set by the auth middleware.
func userID(r *http.Request) string {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

// render executes a named template into a buffer first so a failing
// template never leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		http.Error(w, "templates unavailable", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.events.LogError(r.Context(), "Template render failed", err, log.OpRender,
			log.LogFields{"template": name})
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
