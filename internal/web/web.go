// Package web exposes the HTTP surface: the parse/duplicates/register API,
// the Google OAuth login flow, and an ICS export of the last parsed batch.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"kscal/internal/calendar"
	"kscal/internal/config"
	"kscal/internal/extract"
	"kscal/internal/googlecal"
	appLog "kscal/internal/log"
	"kscal/internal/model"
)

// Server wires the extraction engine and the calendar collaborators into
// HTTP handlers.
type Server struct {
	cfg *config.Config
	tz  *time.Location
	mux *http.ServeMux

	extractor  *extract.Extractor
	normalizer *extract.Normalizer
	reconciler *calendar.Reconciler

	// client is the writable calendar backend; feed is the optional
	// read-only ICS source consulted by the duplicate report.
	client calendar.Client
	feed   calendar.Lister

	oauthCfg *oauth2.Config
	store    *googlecal.TokenStore

	// Last parsed batch, kept for /api/export.ics.
	lastMu    sync.RWMutex
	lastBatch []model.ScheduleDraft
}

// Options carries the collaborators the server needs. feed may be nil.
type Options struct {
	Config     *config.Config
	Timezone   *time.Location
	Extractor  *extract.Extractor
	Reconciler *calendar.Reconciler
	Client     calendar.Client
	Feed       calendar.Lister
	OAuth      *oauth2.Config
	Store      *googlecal.TokenStore
}

// NewServer constructs a Server and registers its routes.
func NewServer(opts Options) *Server {
	tz := opts.Timezone
	if tz == nil {
		tz = time.Local
	}
	s := &Server{
		cfg:        opts.Config,
		tz:         tz,
		mux:        http.NewServeMux(),
		extractor:  opts.Extractor,
		normalizer: extract.NewNormalizer(tz),
		reconciler: opts.Reconciler,
		client:     opts.Client,
		feed:       opts.Feed,
		oauthCfg:   opts.OAuth,
		store:      opts.Store,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler, wrapped with Basic Auth when
// configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// 빈 사용자명 또는 비밀번호가 설정된 경우에는 비활성화로 취급한다.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return false
	}
	return true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health 는 항상 무인증으로 노출한다.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="kscal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer starts an HTTP server bound to cfg.Listen. Shutdown on ctx
// cancel is handled by the caller wrapping http.Server.
func StartServer(_ context.Context, opts Options) error {
	s := NewServer(opts)
	appLog.Info("starting HTTP server", "listen", "http://"+opts.Config.Listen)
	return http.ListenAndServe(opts.Config.Listen, s.Handler())
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/parse", s.handleParse)
	s.mux.HandleFunc("/api/duplicates", s.handleDuplicates)
	s.mux.HandleFunc("/api/register", s.handleRegister)
	s.mux.HandleFunc("/api/export.ics", s.handleExportICS)
	s.mux.HandleFunc("/login", s.handleLogin)
	s.mux.HandleFunc("/auth/callback", s.handleAuthCallback)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
