package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/log"
	"bilancio/internal/ports"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "auth.html", authView{Title: "Sign in", Action: "/login"})
}

func (s *Server) handleSignUpPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "auth.html", authView{Title: "Create account", Action: "/signup"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, log.OpSignIn, authView{Title: "Sign in", Action: "/login"}, s.auth.SignIn)
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	s.authenticate(w, r, log.OpSignUp, authView{Title: "Create account", Action: "/signup"}, s.auth.SignUp)
}

// authenticate runs a sign in or sign up, then sets the session cookie and
// sends the browser to the dashboard. API clients get the token as JSON.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request, op string, page authView,
	do func(ctx context.Context, email, password string) (auth.Session, error)) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}
	email := p.Get("email")
	sess, err := do(r.Context(), email, p.Get("password"))
	if err != nil {
		status, msg := authFailure(err)
		if status == http.StatusInternalServerError {
			s.events.LogError(r.Context(), "Authentication failed", err, op,
				log.NewFields().WithErrorType(log.ErrorTypeDatabase))
		} else {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Authentication rejected",
				log.FieldOperation, op,
				log.FieldErrorType, log.ErrorTypeAuth,
				log.FieldClientIP, s.securityDetector.ExtractClientIP(r))
		}
		if wantsJSON(r) || p.IsJSON() {
			writeJSONError(w, status, msg)
			return
		}
		page.Email = email
		page.Error = msg
		s.render(w, r, status, "auth.html", page)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User authenticated",
		log.FieldOperation, op,
		log.FieldUserID, sess.User.ID)

	if wantsJSON(r) || p.IsJSON() {
		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":    sess.User.ID,
			"token":      sess.Token,
			"expires_at": sess.ExpiresAt.UTC().Format(time.RFC3339),
		})
		return
	}
	s.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authFailure picks the status and a message safe to show the user.
func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, auth.ErrInvalidEmail):
		return http.StatusUnprocessableEntity, "Enter a valid email address."
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusUnprocessableEntity, auth.ErrWeakPassword.Error()
	case errors.Is(err, ports.ErrEmailTaken):
		return http.StatusConflict, "An account with this email already exists."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please retry."
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setSessionCookie(w, "", time.Unix(0, 0))
	if isHTMX(r) {
		NewHTMXResponse().Header("HX-Redirect", "/login").Write(w)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// setSessionCookie stores token; an empty token expires the cookie.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	c := &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}
