package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"schedgrid/internal/config"
	"schedgrid/internal/ics"
	appLog "schedgrid/internal/log"
	"schedgrid/internal/model"
	"schedgrid/internal/schedule"
)

const appointmentsCacheTTL = 30 * time.Second

// Server exposes the configured scheduler view over HTTP.
type Server struct {
	cfg     *config.Config
	loc     *time.Location
	fetcher *ics.Fetcher
	now     func() time.Time
	router  chi.Router

	// Current view, re-anchored by Refresh.
	viewMu sync.RWMutex
	view   schedule.View

	// In-memory cache for /api/appointments so that UI polling does not
	// refetch every feed.
	apptMu    sync.RWMutex
	apptCache *appointmentsCache
}

type appointmentsCache struct {
	resp      appointmentsResponse
	rng       model.ViewRange
	updatedAt time.Time
}

// NewServer computes the initial view from cfg and registers the routes.
// A nil now uses time.Now.
func NewServer(cfg *config.Config, fetcher *ics.Fetcher, now func() time.Time) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	s := &Server{
		cfg:     cfg,
		loc:     loc,
		fetcher: fetcher,
		now:     now,
		router:  chi.NewRouter(),
	}
	if _, err := s.Refresh(); err != nil {
		return nil, err
	}
	s.registerRoutes()
	return s, nil
}

// Refresh recomputes the view for the current time and drops cached
// appointments.
func (s *Server) Refresh() (schedule.View, error) {
	p, err := s.cfg.Params(s.now())
	if err != nil {
		return schedule.View{}, err
	}
	view, err := schedule.Compute(p)
	if err != nil {
		return schedule.View{}, err
	}

	s.viewMu.Lock()
	s.view = view
	s.viewMu.Unlock()

	s.apptMu.Lock()
	s.apptCache = nil
	s.apptMu.Unlock()
	return view, nil
}

// View returns the current view.
func (s *Server) View() schedule.View {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()
	return s.view
}

// Handler returns the root handler, wrapped in basic auth when configured.
func (s *Server) Handler() http.Handler {
	if s.basicAuthEnabled() {
		return s.basicAuthMiddleware(s.router)
	}
	return s.router
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "basic_auth", s.basicAuthEnabled())
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
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/grid", s.handleGrid)
		r.Get("/views", s.handleViews)
		r.Get("/appointments", s.handleAppointments)
	})
}

func (s *Server) basicAuthEnabled() bool {
	a := s.cfg.BasicAuth
	return a != nil && a.Username != "" && a.Password != ""
}

// basicAuthMiddleware protects every path except /health.
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
			w.Header().Set("WWW-Authenticate", `Basic realm="schedgrid", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// gridResponse is the JSON shape of /api/grid.
type gridResponse struct {
	Timezone       string          `json:"timezone"`
	FirstDayOfWeek string          `json:"first_day_of_week"`
	Days           []time.Time     `json:"days"`
	Slots          []model.Slot    `json:"slots"`
	Cells          model.Grid      `json:"cells"`
	Range          model.ViewRange `json:"range"`
}

// handleGrid returns the current view, or a view computed from the current
// parameters with query overrides:
//
//	GET /api/grid?date=2018-10-09&first_day=mon&days=5&exclude=sat,sun&start=8&end=18&duration=30
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	view := s.View()
	if len(r.URL.Query()) > 0 {
		p, err := s.overrideParams(view.Params, r)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if view, err = schedule.Compute(p); err != nil {
			writeEngineError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, gridResponse{
		Timezone:       s.loc.String(),
		FirstDayOfWeek: view.Params.FirstDayOfWeek.String(),
		Days:           view.Days,
		Slots:          view.Slots,
		Cells:          view.Cells,
		Range:          view.Range,
	})
}

func (s *Server) overrideParams(p schedule.ViewParams, r *http.Request) (schedule.ViewParams, error) {
	q := r.URL.Query()
	var err error
	if v := q.Get("date"); v != "" {
		if p.CurrentDate, err = schedule.ParseDate(v, s.loc); err != nil {
			return p, err
		}
	}
	if q.Has("first_day") {
		if p.FirstDayOfWeek, err = schedule.ParseWeekStart(q.Get("first_day")); err != nil {
			return p, err
		}
	}
	if q.Has("exclude") {
		p.ExcludedDays = nil
		if v := q.Get("exclude"); v != "" {
			if p.ExcludedDays, err = schedule.ParseWeekdays(strings.Split(v, ",")); err != nil {
				return p, err
			}
		}
	}
	for name, dst := range map[string]*int{"days": &p.IntervalCount, "start": &p.StartDayHour, "end": &p.EndDayHour} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return p, fmt.Errorf("%w: %s: %v", schedule.ErrInvalidConfiguration, name, err)
			}
			*dst = n
		}
	}
	if v := q.Get("duration"); v != "" {
		if p.CellDuration, err = (&config.Config{CellDuration: v}).CellMinutes(); err != nil {
			return p, err
		}
	}
	return p, nil
}

type viewsResponse struct {
	Views   []string `json:"views"`
	Current string   `json:"current"`
}

// handleViews merges ?view= (or the configured current view) into the
// configured view names.
func (s *Server) handleViews(w http.ResponseWriter, r *http.Request) {
	current := r.URL.Query().Get("view")
	if current == "" {
		current = s.cfg.CurrentView
	}
	writeJSON(w, http.StatusOK, viewsResponse{
		Views:   schedule.AvailableViewNames(s.cfg.Views, current),
		Current: current,
	})
}

type appointmentsResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
	Truncated    []string         `json:"truncated_uids,omitempty"`
	Range        model.ViewRange  `json:"range"`
	Timezone     string           `json:"timezone"`
}

type appointmentDTO struct {
	SourceID    string    `json:"source_id"`
	UID         string    `json:"uid"`
	InstanceKey string    `json:"instance_key"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// handleAppointments returns the ICS appointments overlapping the current
// view range.
func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	view := s.View()

	s.apptMu.RLock()
	ac := s.apptCache
	s.apptMu.RUnlock()
	if ac != nil && ac.rng.Equal(view.Range) && s.now().Sub(ac.updatedAt) < appointmentsCacheTTL {
		writeJSON(w, http.StatusOK, ac.resp)
		return
	}

	resp := appointmentsResponse{
		Appointments: []appointmentDTO{},
		Range:        view.Range,
		Timezone:     s.loc.String(),
	}

	sources := make([]ics.Source, 0, len(s.cfg.ICS))
	for _, c := range s.cfg.ICS {
		if c.URL != "" {
			sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
		}
	}
	if len(sources) == 0 || s.fetcher == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	results, err := s.fetcher.FetchAll(r.Context(), sources)
	if err != nil {
		appLog.Warn("api appointments: some feeds failed", "fetched", len(results), "sources", len(sources))
	}
	var events []ics.Event
	for _, res := range results {
		parsed, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("api appointments: parse failed", err, "id", res.Source.ID)
			continue
		}
		events = append(events, parsed...)
	}

	expanded, err := ics.Expand(events, ics.ExpandOptions{Range: view.Range, Location: s.loc})
	if err != nil {
		appLog.Error("api appointments: expand failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand appointments")
		return
	}
	for _, a := range expanded.Appointments {
		resp.Appointments = append(resp.Appointments, appointmentDTO(a))
	}
	resp.Truncated = expanded.Truncated

	appLog.Info("api appointments", "count", len(resp.Appointments), "range_start", view.Range.Start.Format(time.RFC3339), "range_end", view.Range.End.Format(time.RFC3339))

	// A Refresh during the fetch moved the view; keep the stale result out
	// of the cache.
	s.apptMu.Lock()
	if s.View().Range.Equal(view.Range) {
		s.apptCache = &appointmentsCache{resp: resp, rng: view.Range, updatedAt: s.now()}
	}
	s.apptMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// writeEngineError maps engine precondition failures to 400.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidDate),
		errors.Is(err, schedule.ErrInvalidConfiguration),
		errors.Is(err, schedule.ErrInvalidGrid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		appLog.Error("api grid failed", err)
		writeError(w, http.StatusInternalServerError, "failed to compute grid")
	}
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
