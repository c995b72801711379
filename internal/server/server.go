package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/nacp/internal/archive"
	"github.com/dukerupert/nacp/internal/auth"
	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/config"
	"github.com/dukerupert/nacp/internal/email"
	"github.com/dukerupert/nacp/internal/geo"
	"github.com/dukerupert/nacp/internal/handler"
	"github.com/dukerupert/nacp/internal/middleware"
	"github.com/dukerupert/nacp/internal/model"
	"github.com/dukerupert/nacp/internal/store"
	ws "github.com/dukerupert/nacp/internal/websocket"
	"github.com/dukerupert/nacp/web"
)

const geoLookupsPerMinute = 30

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	wizardH        *handler.WizardHandler
	locationH      *handler.LocationHandler
	accountH       *handler.AccountHandler
	adminH         *handler.AdminHandler
	surveyH        *handler.SurveyHandler
	sessionStore   *store.SessionStore
	wizardStore    *store.WizardStore
	rateLimiter    *middleware.RateLimiter
	allowedOrigins []string
	logger         *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, geoClient *geo.Client, emailClient *email.Client, archiver *archive.Archiver, logger *slog.Logger) (*Server, error) {
	credentials, err := auth.NewCredentials(cfg.Admin.Credentials)
	if err != nil {
		return nil, fmt.Errorf("admin credentials: %w", err)
	}

	c := catalog.Default()
	render, err := handler.NewRenderer(web.Templates(), c, logger.With("component", "render"))
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	wizardStore := store.NewWizardStore(db)
	regStore := store.NewRegistrationStore(db)
	sessionStore := store.NewSessionStore(db)
	userStore := store.NewUserStore(db)

	surveyH := handler.NewSurveyHandler(
		store.NewHolderStore(db),
		store.NewProgressStore(db),
		store.NewGeneralInfoStore(db),
		store.NewHouseholdStore(db),
		store.NewLabourStore(db),
		store.NewLandUseStore(db),
		store.NewMachineryStore(db),
		c,
		cfg.Survey.TotalSections,
		render,
		logger.With("component", "survey"),
	)

	return &Server{
		db:             db,
		hub:            hub,
		wizardH:        handler.NewWizardHandler(wizardStore, regStore, geoClient, emailClient, hub, c, render, logger.With("component", "wizard")),
		locationH:      handler.NewLocationHandler(geoClient, logger.With("component", "location")),
		accountH:       handler.NewAccountHandler(userStore, sessionStore, render, logger.With("component", "account")),
		adminH:         handler.NewAdminHandler(db, credentials, archiver, emailClient, hub, c, render, logger.With("component", "admin")),
		surveyH:        surveyH,
		sessionStore:   sessionStore,
		wizardStore:    wizardStore,
		rateLimiter:    middleware.NewRateLimiter(),
		allowedOrigins: cfg.Server.AllowedOrigins,
		logger:         logger,
	}, nil
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// WizardStore returns the wizard session store for cleanup tasks.
func (s *Server) WizardStore() *store.WizardStore {
	return s.wizardStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub feeding the admin dashboard.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public registration wizard
	outerMux.HandleFunc("GET /{$}", s.wizardH.Show)
	outerMux.HandleFunc("POST /start", s.wizardH.Start)
	outerMux.HandleFunc("POST /registration", s.rateLimitedHandler(s.wizardH.Register))
	outerMux.HandleFunc("POST /availability", s.wizardH.Availability)
	outerMux.HandleFunc("POST /location", s.wizardH.Location)
	outerMux.HandleFunc("POST /confirm", s.wizardH.Confirm)
	outerMux.HandleFunc("POST /back", s.wizardH.Back)
	outerMux.HandleFunc("POST /reset", s.wizardH.Reset)

	outerMux.HandleFunc("GET /api/location/detect", s.geoLimitedHandler(s.locationH.Detect))
	outerMux.HandleFunc("GET /api/location/reverse", s.geoLimitedHandler(s.locationH.Reverse))

	// Census accounts
	outerMux.HandleFunc("GET /login", s.accountH.LoginPage)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.accountH.Login))
	outerMux.HandleFunc("GET /register", s.accountH.RegisterPage)
	outerMux.HandleFunc("POST /register", s.rateLimitedHandler(s.accountH.Register))
	outerMux.HandleFunc("POST /logout", s.accountH.Logout)

	outerMux.HandleFunc("GET /admin/login", s.adminH.LoginPage)
	outerMux.HandleFunc("POST /admin/login", s.rateLimitedHandler(s.adminH.Login))
	outerMux.HandleFunc("POST /admin/logout", s.adminH.Logout)

	outerMux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Static())))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Admin dashboard
	adminMux := http.NewServeMux()
	s.registerAdminRoutes(adminMux)
	adminAuth := middleware.RequireAuth(s.sessionStore, "/admin/login")
	outerMux.Handle("/admin/", adminAuth(middleware.RequireAdmin(adminMux)))

	// Census survey
	surveyMux := http.NewServeMux()
	s.registerSurveyRoutes(surveyMux)
	surveyAuth := middleware.RequireAuth(s.sessionStore, "/login")
	outerMux.Handle("/survey", surveyAuth(surveyMux))
	outerMux.Handle("/survey/", surveyAuth(surveyMux))
	outerMux.Handle("/agent", surveyAuth(middleware.RequireRole(model.RoleAgent)(surveyMux)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	resp := map[string]any{"status": status, "websocket_clients": s.hub.ClientCount()}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

// geoLimitedHandler caps lookups proxied to ipinfo and Nominatim per IP. It
// keeps its own budget so map clicks do not use up login attempts.
func (s *Server) geoLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return "geo:" + middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, geoLookupsPerMinute, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/{$}", s.adminH.Dashboard)

	mux.HandleFunc("GET /admin/registrations", s.adminH.Registrations)
	mux.HandleFunc("GET /admin/registrations/{id}", s.adminH.EditRegistration)
	mux.HandleFunc("POST /admin/registrations/{id}", s.adminH.UpdateRegistration)

	mux.HandleFunc("GET /admin/tables/{table}", s.adminH.Table)
	mux.HandleFunc("POST /admin/tables/{table}/delete", s.adminH.DeleteRows)
	mux.HandleFunc("GET /admin/tables/{table}/export", s.adminH.Export)
	mux.HandleFunc("POST /admin/tables/{table}/archive", s.adminH.Archive)

	mux.HandleFunc("GET /admin/archives", s.adminH.Archives)
	mux.HandleFunc("GET /admin/archives/download", s.adminH.DownloadArchive)
	mux.HandleFunc("POST /admin/archives/delete", s.adminH.DeleteArchive)
	mux.HandleFunc("POST /admin/archives/snapshot", s.adminH.Snapshot)

	mux.HandleFunc("GET /admin/users", s.adminH.Users)
	mux.HandleFunc("POST /admin/users/{id}/approve", s.adminH.ApproveUser)
	mux.HandleFunc("POST /admin/users/{id}/deactivate", s.adminH.DeactivateUser)
	mux.HandleFunc("POST /admin/holders/{id}/agent", s.adminH.AssignAgent)
	mux.HandleFunc("GET /admin/land-use", s.adminH.LandUse)
	mux.HandleFunc("POST /admin/land-use/{id}/delete", s.adminH.DeleteLandUse)

	// WebSocket
	mux.HandleFunc("GET /admin/ws", ws.HandleWebSocket(s.hub, s.allowedOrigins))
}

func (s *Server) registerSurveyRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /survey", s.surveyH.Start)
	mux.HandleFunc("GET /agent", s.surveyH.Agent)

	mux.HandleFunc("GET /survey/{holder}", s.surveyH.Dashboard)
	mux.HandleFunc("POST /survey/{holder}/location", s.surveyH.SetLocation)
	mux.HandleFunc("GET /survey/{holder}/general", s.surveyH.GeneralForm)
	mux.HandleFunc("POST /survey/{holder}/general", s.surveyH.SaveGeneral)

	mux.HandleFunc("GET /survey/{holder}/holder", s.surveyH.HolderForm)
	mux.HandleFunc("POST /survey/{holder}/holder", s.surveyH.SaveHolder)

	mux.HandleFunc("GET /survey/{holder}/labour", s.surveyH.LabourForm)
	mux.HandleFunc("POST /survey/{holder}/labour", s.surveyH.SaveLabour)
	mux.HandleFunc("POST /survey/{holder}/labour/workers", s.surveyH.SaveWorkers)

	mux.HandleFunc("GET /survey/{holder}/household", s.surveyH.HouseholdForm)
	mux.HandleFunc("POST /survey/{holder}/household", s.surveyH.SaveHousehold)
	mux.HandleFunc("POST /survey/{holder}/household/members", s.surveyH.AddMembers)
	mux.HandleFunc("POST /survey/{holder}/household/members/{id}/delete", s.surveyH.DeleteMember)

	mux.HandleFunc("GET /survey/{holder}/land-use", s.surveyH.LandUseForm)
	mux.HandleFunc("POST /survey/{holder}/land-use", s.surveyH.SaveLandUse)

	mux.HandleFunc("GET /survey/{holder}/machinery", s.surveyH.MachineryForm)
	mux.HandleFunc("POST /survey/{holder}/machinery", s.surveyH.SaveMachinery)
}
