package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bilancio/internal/auth"
	"bilancio/internal/cache"
	"bilancio/internal/log"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/security"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
	appweb "bilancio/web"
)

// cacheSweepInterval is how often expired snapshots are dropped.
const cacheSweepInterval = 5 * time.Minute

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps groups what the server needs to serve the dashboard. Auth is nil in
// the single-user modes, where every request belongs to auth.LocalUserID.
type Deps struct {
	Finance      *services.FinanceService
	Dashboard    *services.DashboardService
	Snapshots    *services.SnapshotLoader
	Auth         *auth.Service
	Health       Pinger
	RateLimit    ratelimit.Config
	Logger       *log.Logger
	CookieSecure bool
}

type Server struct {
	http.Server
	templates *template.Template

	finance      *services.FinanceService
	dashboard    *services.DashboardService
	snapshots    *services.SnapshotLoader
	auth         *auth.Service
	health       Pinger
	logger       *log.Logger
	events       *log.StructuredLogger
	cookieSecure bool

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	tracer           *trace.Middleware
	cacheManager     *cache.Manager

	startedAt    time.Time
	savedWrites  atomic.Int64
	failedWrites atomic.Int64

	stopBackground context.CancelFunc
	shutdownOnce   sync.Once
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		finance:          deps.Finance,
		dashboard:        deps.Dashboard,
		snapshots:        deps.Snapshots,
		auth:             deps.Auth,
		health:           deps.Health,
		logger:           logger,
		events:           log.NewStructuredLogger(logger),
		cookieSecure:     deps.CookieSecure,
		rateLimiter:      ratelimit.NewLimiter(deps.RateLimit),
		securityDetector: security.NewDetector(),
		startedAt:        time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	if s.auth != nil {
		mux.HandleFunc("GET /signup", s.handleSignUpPage)
		mux.HandleFunc("POST /signup", s.handleSignUp)
		mux.HandleFunc("GET /login", s.handleLoginPage)
		mux.HandleFunc("POST /login", s.handleLogin)
		mux.HandleFunc("POST /logout", s.handleLogout)
	}

	protect := s.requireUser()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, protect(security.NoStore(h)))
	}
	handle("GET /{$}", s.handleIndex)
	handle("GET /ui/dashboard", s.handleDashboard)
	handle("POST /transactions", s.handleSaveTransaction)
	handle("POST /transactions/{id}", s.handleSaveTransaction)
	handle("POST /transactions/{id}/delete", s.handleDeleteTransaction)
	handle("POST /goal", s.handleSetGoal)
	handle("POST /reminders", s.handleAddReminder)
	handle("POST /reminders/{id}/delete", s.handleDeleteReminder)
	handle("GET /api/summary", s.handleAPISummary)
	handle("GET /api/trend", s.handleAPITrend)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)

	var h http.Handler = mux
	h = limitMutating(limited, h)
	h = s.securityDetector.Middleware(h)
	h = headers.Middleware(h)
	h = log.Middleware(logger, trace.RequestID)(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	ctx, cancel := context.WithCancel(context.Background())
	s.stopBackground = cancel
	s.cacheManager = cache.NewManager()
	if s.snapshots != nil {
		s.cacheManager.Register(s.snapshots.Cache())
	}
	s.cacheManager.Start(ctx, cacheSweepInterval)

	return s
}

// Hosted reports whether requests are authenticated per user.
func (s *Server) Hosted() bool { return s.auth != nil }

// requireUser attaches the user id to the request context, rejecting
// requests without a valid session in hosted mode.
func (s *Server) requireUser() func(http.Handler) http.Handler {
	if s.auth == nil {
		return auth.LocalMiddleware
	}
	return auth.Middleware(s.auth.Tokens(), s.handleUnauthorized)
}

// limitMutating applies limited to POST requests only.
func limitMutating(limited func(http.Handler) http.Handler, next http.Handler) http.Handler {
	guarded := limited(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			guarded.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	if wantsJSON(r) {
		writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").Write(w)
}

func (s *Server) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	switch {
	case wantsJSON(r) || strings.HasPrefix(r.URL.Path, "/api/"):
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
	case isHTMX(r):
		NewHTMXResponse().Status(http.StatusUnauthorized).Header("HX-Redirect", "/login").Write(w)
	default:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// Shutdown stops background work and then the HTTP server. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopBackground != nil {
			s.stopBackground()
			s.cacheManager.Wait()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
