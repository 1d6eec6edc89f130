package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"blogsched/internal/config"
	"blogsched/internal/ics"
	appLog "blogsched/internal/log"
	"blogsched/internal/model"
	"blogsched/internal/pipeline"
	"blogsched/internal/planner"
	"blogsched/internal/render"
	"blogsched/internal/store"
)

// RefreshFunc runs the reconcile and render pipeline on demand.
type RefreshFunc func(ctx context.Context) (pipeline.Result, error)

// Server exposes the schedule, the coming-soon fragment and the calendar
// feed over HTTP.
type Server struct {
	cfg     *config.Config
	mux     *http.ServeMux
	refresh RefreshFunc

	// now is swapped in tests.
	now func() time.Time
}

// NewServer constructs a new Server. refresh may be nil, in which case
// POST /api/refresh is not registered.
func NewServer(cfg *config.Config, refresh RefreshFunc) *Server {
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		refresh: refresh,
		now:     time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Half-filled credentials disable auth rather than lock everyone out.
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
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="blogsched", charset="UTF-8"`)
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

// Serve listens on cfg.Listen until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	appLog.Info("HTTP server stopped")
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/schedule", s.handleSchedule)
	s.mux.HandleFunc("GET /api/upcoming", s.handleUpcoming)
	s.mux.HandleFunc("GET /coming-soon", s.handleComingSoon)
	s.mux.HandleFunc("GET /schedule.ics", s.handleICS)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	if s.refresh != nil {
		s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// loadSchedule reads the schedule fresh on every request; the file is small
// and may be edited by CLI commands at any time.
func (s *Server) loadSchedule(w http.ResponseWriter) (*model.Schedule, bool) {
	sched, err := store.Load(s.cfg.SchedulePath)
	if err != nil {
		appLog.Error("schedule load failed", err, "path", s.cfg.SchedulePath)
		writeError(w, http.StatusInternalServerError, "failed to load schedule")
		return nil, false
	}
	return sched, true
}

func (s *Server) handleSchedule(w http.ResponseWriter, _ *http.Request) {
	sched, ok := s.loadSchedule(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

// upcomingResponse is the JSON response shape for /api/upcoming.
type upcomingResponse struct {
	From    string                `json:"from"`
	Days    int                   `json:"days"`
	Entries []model.ScheduleEntry `json:"entries"`
}

// handleUpcoming lists entries of any status dated within the next days
// (default 14).
//
// GET /api/upcoming?days=7
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), render.DefaultWindowDays)
	if days <= 0 {
		days = render.DefaultWindowDays
	}
	sched, ok := s.loadSchedule(w)
	if !ok {
		return
	}

	today := model.CivilDate(s.now(), s.cfg.Location())
	entries := planner.Upcoming(sched, today, days)
	if entries == nil {
		entries = []model.ScheduleEntry{}
	}
	writeJSON(w, http.StatusOK, upcomingResponse{From: model.FormatDate(today), Days: days, Entries: entries})
}

// handleComingSoon returns the coming-soon fragment exactly as it would be
// spliced into the blog page.
func (s *Server) handleComingSoon(w http.ResponseWriter, _ *http.Request) {
	sched, ok := s.loadSchedule(w)
	if !ok {
		return
	}
	opts := pipeline.RenderOptions(s.cfg, s.now())
	shown, _ := render.Select(sched, opts)
	frag, err := render.Fragment(shown, opts.WindowDays)
	if err != nil {
		appLog.Error("fragment render failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render fragment")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(frag)
}

func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	sched, ok := s.loadSchedule(w)
	if !ok {
		return
	}
	data, err := ics.Export(sched, ics.ExportOptions{
		Domain:          s.cfg.ICSDomain,
		Now:             s.now(),
		IncludeTerminal: r.URL.Query().Get("all") == "1",
	})
	if err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	_, _ = w.Write(data)
}

// handlePreview serves the last captured PNG from disk.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	// http.ServeFile maps a missing file to 404.
	http.ServeFile(w, r, s.cfg.Preview.OutputPath)
}

// refreshResponse is the JSON response shape for /api/refresh.
type refreshResponse struct {
	Promoted []string `json:"promoted"`
	Rendered int      `json:"rendered"`
	Written  bool     `json:"written"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.refresh(r.Context())
	if err != nil {
		appLog.Error("refresh failed", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	promoted := res.Reconcile.Promoted
	if promoted == nil {
		promoted = []string{}
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Promoted: promoted,
		Rendered: res.Render.Rendered,
		Written:  res.Render.Written,
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
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
