// Package server serves the platform HTTP API on top of a store.Store.
//
// Routes:
//
//	GET  /                               readiness
//	POST /api/users/register             {"name": ...}
//	GET  /api/posts/recent               ranked feed
//	POST /api/posts                      {"user_id", "content", "parent_id"}
//	GET  /api/posts/{id}                 thread
//	GET  /api/users/{id}/notifications   pending notifications
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/hupe1980/bleater/core"
	"github.com/hupe1980/bleater/logging"
	"github.com/hupe1980/bleater/platform"
	"github.com/hupe1980/bleater/platform/store"
)

// Options configure a Server.
type Options struct {
	Logger logging.Logger
	// Now returns the current unix time; overridable for tests.
	Now func() int64
}

// Server is the platform API handler.
type Server struct {
	store  store.Store
	router *mux.Router
	opts   Options
}

// New creates a server backed by s.
func New(s store.Store, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Now:    func() int64 { return time.Now().Unix() },
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	srv := &Server{store: s, router: mux.NewRouter(), opts: opts}
	srv.routes()

	return srv
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(s.logMiddleware)
	s.router.Use(jsonMiddleware)

	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/users/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/notifications", s.handleNotifications).Methods(http.MethodGet)
	api.HandleFunc("/posts/recent", s.handleRecent).Methods(http.MethodGet)
	api.HandleFunc("/posts", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}", s.handleThread).Methods(http.MethodGet)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "bleater"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := s.store.RegisterUser(r.Context(), req.Name)
	if err != nil {
		s.writeStoreError(w, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.RecentPosts(r.Context(), FeedWindow)
	if err != nil {
		s.writeStoreError(w, "recent", err)
		return
	}

	writeJSON(w, http.StatusOK, RankFeed(s.opts.Now(), posts))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req platform.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.UserID == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "user_id and content are required")
		return
	}

	post, err := s.store.SubmitPost(r.Context(), req, s.opts.Now())
	if err != nil {
		s.writeStoreError(w, "submit", err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleThread(w http.ResponseWriter, r *http.Request) {
	thread, err := s.store.Thread(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, "thread", err)
		return
	}

	writeJSON(w, http.StatusOK, thread)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.store.Notifications(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeStoreError(w, "notifications", err)
		return
	}

	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, core.ErrRegistrationConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, platform.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.opts.Logger.Error("server.store.error", "op", op, "error", err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.opts.Logger.Debug("server.request", "method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, platform.ErrorResponse{Error: message})
}
